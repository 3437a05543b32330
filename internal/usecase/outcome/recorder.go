package outcome

import (
	"context"
	"fmt"
	"time"

	"github.com/andreyxaxa/payout-controller/internal/entity"
	"github.com/andreyxaxa/payout-controller/internal/infrastructure"
	"github.com/andreyxaxa/payout-controller/internal/repo"
	"github.com/andreyxaxa/payout-controller/pkg/logger"
	"github.com/shopspring/decimal"
)

const _defaultWriteTimeout = 5 * time.Second

// Recorder writes every attempt outcome to the history store chosen at
// startup. Store and publisher errors end up in the log, never at the caller.
type Recorder struct {
	store     repo.PayoutHistoryRepo
	publisher infrastructure.OutcomePublisher
	logger    logger.Interface

	writeTimeout time.Duration
	now          func() time.Time
}

// New builds a Recorder. publisher may be nil.
func New(
	store repo.PayoutHistoryRepo,
	publisher infrastructure.OutcomePublisher,
	l logger.Interface,
	writeTimeout time.Duration,
) *Recorder {
	if writeTimeout <= 0 {
		writeTimeout = _defaultWriteTimeout
	}

	return &Recorder{
		store:        store,
		publisher:    publisher,
		logger:       l,
		writeTimeout: writeTimeout,
		now:          time.Now,
	}
}

func (r *Recorder) RecordSuccess(ctx context.Context, outcome entity.PayoutOutcome) {
	outcome.Status = entity.Success

	r.record(ctx, outcome, "RecordSuccess")
}

func (r *Recorder) RecordFailure(ctx context.Context, recipient string, amount decimal.Decimal, detail string) {
	r.record(ctx, entity.PayoutOutcome{
		Recipient: recipient,
		Amount:    amount,
		Status:    entity.Failed,
		Detail:    detail,
	}, "RecordFailure")
}

func (r *Recorder) record(ctx context.Context, outcome entity.PayoutOutcome, method string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error(fmt.Errorf("panic %v", rec), "Recorder - "+method+" - panic")
		}
	}()

	if outcome.Recipient == "" {
		outcome.Recipient = entity.UnknownRecipient
	}
	if outcome.CreatedAt.IsZero() {
		outcome.CreatedAt = r.now()
	}

	// the attempt already happened, so a shutdown must not stop it from being written
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.writeTimeout)
	defer cancel()

	err := r.store.Save(writeCtx, outcome)
	if err != nil {
		r.logger.Error(err, "Recorder - "+method+" - r.store.Save")
	}

	if r.publisher == nil {
		return
	}

	err = r.publisher.Publish(writeCtx, outcome)
	if err != nil {
		r.logger.Error(err, "Recorder - "+method+" - r.publisher.Publish")
	}
}
