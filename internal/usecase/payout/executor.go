package payout

import (
	"context"
	"fmt"
	"time"

	"github.com/andreyxaxa/payout-controller/internal/entity"
	"github.com/andreyxaxa/payout-controller/internal/infrastructure"
	"github.com/andreyxaxa/payout-controller/pkg/logger"
	"github.com/andreyxaxa/payout-controller/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Executor performs a single gateway call. It does not retry and does not record.
type Executor struct {
	gateway infrastructure.PayoutGateway
	logger  logger.Interface

	currency string
	timeout  time.Duration
	newID    func() string
}

func NewExecutor(gateway infrastructure.PayoutGateway, l logger.Interface, currency string, timeout time.Duration) *Executor {
	return &Executor{
		gateway:  gateway,
		logger:   l,
		currency: currency,
		timeout:  timeout,
		newID:    uuid.NewString,
	}
}

func (e *Executor) Attempt(ctx context.Context, amount decimal.Decimal, recipient string) (entity.PayoutConfirmation, error) {
	// new ids every time, the gateway is not assumed to deduplicate
	req := entity.PayoutRequest{
		Amount:    amount,
		Currency:  e.currency,
		Recipient: recipient,
		BatchID:   e.newID(),
		ItemID:    e.newID(),
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	e.logger.Debug("payout attempt, batch = %s, item = %s, amount = %s", req.BatchID, req.ItemID, amount.StringFixed(2))

	conf, err := e.gateway.CreatePayout(ctx, req)
	if err != nil {
		return entity.PayoutConfirmation{}, fmt.Errorf("Executor - Attempt - e.gateway.CreatePayout: %w", err)
	}

	if conf.BatchID == "" {
		return entity.PayoutConfirmation{}, fmt.Errorf("Executor - Attempt: %w", errs.ErrEmptyBatchID)
	}

	return conf, nil
}
