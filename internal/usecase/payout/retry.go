package payout

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/andreyxaxa/payout-controller/internal/entity"
	"github.com/andreyxaxa/payout-controller/internal/usecase"
	"github.com/andreyxaxa/payout-controller/pkg/logger"
	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
)

const (
	_defaultMaxRetries = 3
	_defaultMultiplier = 2
	_defaultBaseDelay  = time.Second

	_maxDelay = time.Duration(math.MaxInt64)
)

// RetryController drives one attempt chain: attempt, record, back off, repeat,
// until success or maxRetries attempts have been made.
type RetryController struct {
	executor usecase.PayoutExecutor
	recorder usecase.OutcomeRecorder
	logger   logger.Interface

	recipient  string
	maxRetries int
	multiplier float64
	baseDelay  time.Duration

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

func NewRetryController(
	executor usecase.PayoutExecutor,
	recorder usecase.OutcomeRecorder,
	l logger.Interface,
	recipient string,
	opts ...Option,
) *RetryController {
	rc := &RetryController{
		executor:   executor,
		recorder:   recorder,
		logger:     l,
		recipient:  recipient,
		maxRetries: _defaultMaxRetries,
		multiplier: _defaultMultiplier,
		baseDelay:  _defaultBaseDelay,
		sleep:      sleepContext,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(rc)
	}

	return rc
}

func (rc *RetryController) Run(ctx context.Context, amount decimal.Decimal) entity.ChainResult {
	policy := rc.newPolicy()

	state := entity.AttemptState{
		Request:   entity.PayoutRequest{Amount: amount, Recipient: rc.recipient},
		StartedAt: rc.now(),
	}

	for {
		if err := ctx.Err(); err != nil {
			return entity.ChainResult{
				State:    entity.Aborted,
				Attempts: state.RetryCount,
				Err:      fmt.Errorf("RetryController - Run - ctx.Err: %w", err),
			}
		}

		attempts := state.RetryCount + 1

		conf, err := rc.executor.Attempt(ctx, amount, rc.recipient)
		if err == nil {
			rc.recorder.RecordSuccess(ctx, entity.PayoutOutcome{
				Recipient: rc.recipient,
				Amount:    amount,
				Status:    entity.Success,
				Detail:    conf.BatchID,
				CreatedAt: rc.now(),
			})

			return entity.ChainResult{State: entity.Succeeded, Attempts: attempts, Confirmation: &conf}
		}

		// every failed attempt is recorded, not only the last one
		rc.recorder.RecordFailure(ctx, rc.recipient, amount, err.Error())

		if attempts >= rc.maxRetries {
			return entity.ChainResult{State: entity.PermanentlyFailed, Attempts: attempts, Err: err}
		}

		// baseDelay * multiplier^RetryCount
		delay := policy.NextBackOff()
		rc.logger.Warn("payout attempt %d/%d failed, retrying in %s: %s", attempts, rc.maxRetries, delay, err)

		if sleepErr := rc.sleep(ctx, delay); sleepErr != nil {
			return entity.ChainResult{
				State:    entity.Aborted,
				Attempts: attempts,
				Err:      fmt.Errorf("RetryController - Run - rc.sleep: %w", sleepErr),
			}
		}

		state.RetryCount++
	}
}

// newPolicy returns an unjittered exponential policy with no elapsed-time cap,
// so the n-th delay is exactly baseDelay * multiplier^n.
func (rc *RetryController) newPolicy() *backoff.ExponentialBackOff {
	policy := &backoff.ExponentialBackOff{
		InitialInterval:     rc.baseDelay,
		RandomizationFactor: 0,
		Multiplier:          rc.multiplier,
		MaxInterval:         _maxDelay,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	policy.Reset()

	return policy
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context done: %w", ctx.Err())
	}
}
