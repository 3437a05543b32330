package payoutqueue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/andreyxaxa/payout-controller/internal/entity"
	"github.com/andreyxaxa/payout-controller/internal/usecase"
	"github.com/andreyxaxa/payout-controller/pkg/logger"
	"github.com/andreyxaxa/payout-controller/pkg/types/errs"
	"github.com/shopspring/decimal"
)

// SingleFlightQueue runs payout chains one at a time in submission order.
// A single worker goroutine is the only slot, so the next chain starts only
// after the previous one reached a terminal state.
type SingleFlightQueue struct {
	runner usecase.ChainRunner
	logger logger.Interface

	mu      sync.Mutex
	pending []decimal.Decimal
	closed  bool
	stats   entity.QueueStats

	wake chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(runner usecase.ChainRunner, l logger.Interface) *SingleFlightQueue {
	return &SingleFlightQueue{
		runner: runner,
		logger: l,
		wake:   make(chan struct{}, 1),
	}
}

func (q *SingleFlightQueue) Start(ctx context.Context) error {
	if !q.started.CompareAndSwap(false, true) {
		return fmt.Errorf("SingleFlightQueue - Start - worker already started")
	}

	q.ctx, q.cancel = context.WithCancel(ctx)

	q.wg.Add(1)
	go q.worker()

	return nil
}

// Submit enqueues an amount and returns immediately. Payout errors are never
// reported here, only ErrQueueClosed after Shutdown.
func (q *SingleFlightQueue) Submit(amount decimal.Decimal) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()

		return errs.ErrQueueClosed
	}
	q.pending = append(q.pending, amount)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}

	return nil
}

func (q *SingleFlightQueue) Stats() entity.QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := q.stats
	s.Pending = len(q.pending)

	return s
}

func (q *SingleFlightQueue) worker() {
	defer q.wg.Done()

	for {
		amount, ok := q.next()
		if !ok {
			select {
			case <-q.ctx.Done():
				return
			case <-q.wake:
				continue
			}
		}

		q.run(amount)
	}
}

// next pops the head of the queue and marks the slot as taken.
func (q *SingleFlightQueue) next() (decimal.Decimal, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.ctx.Err() != nil || len(q.pending) == 0 {
		return decimal.Decimal{}, false
	}

	amount := q.pending[0]
	q.pending = q.pending[1:]
	q.stats.InFlight = true

	return amount, true
}

func (q *SingleFlightQueue) run(amount decimal.Decimal) {
	result := entity.ChainResult{State: entity.PermanentlyFailed}

	defer func() {
		if r := recover(); r != nil {
			q.logger.Error(fmt.Errorf("panic %v", r), "SingleFlightQueue - run - panic")
		}

		q.finish(result)
	}()

	result = q.runner.Run(q.ctx, amount)

	switch result.State {
	case entity.Succeeded:
		batchID := ""
		if result.Confirmation != nil {
			batchID = result.Confirmation.BatchID
		}
		q.logger.Info("payout completed, amount = %s, batch = %s, attempts = %d", amount.StringFixed(2), batchID, result.Attempts)
	case entity.Aborted:
		q.logger.Warn("payout aborted, amount = %s, attempts = %d: %v", amount.StringFixed(2), result.Attempts, result.Err)
	default:
		q.logger.Error(
			fmt.Errorf("payout failed after %d attempts, amount = %s: %w", result.Attempts, amount.StringFixed(2), result.Err),
			"SingleFlightQueue - run",
		)
	}
}

func (q *SingleFlightQueue) finish(result entity.ChainResult) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.stats.InFlight = false
	q.stats.Processed++

	switch result.State {
	case entity.Succeeded:
		q.stats.Succeeded++
	case entity.Aborted:
		q.stats.Aborted++
	default:
		q.stats.Failed++
	}
}

// Shutdown stops accepting submissions and cancels the running chain, which
// aborts a pending backoff. Queued amounts that never started are dropped.
func (q *SingleFlightQueue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	dropped := len(q.pending)
	q.pending = nil
	q.mu.Unlock()

	if !q.started.Load() {
		return nil
	}

	if dropped > 0 {
		q.logger.Warn("SingleFlightQueue - Shutdown - dropped %d queued payouts", dropped)
	}

	if q.cancel != nil {
		q.cancel()
	}

	done := make(chan struct{})

	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("SingleFlightQueue - Shutdown - ctx.Done: %w", ctx.Err())
	}
}
