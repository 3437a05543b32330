package infrastructure

import (
	"context"

	"github.com/andreyxaxa/payout-controller/internal/entity"
	"github.com/shopspring/decimal"
)

type (
	PayoutGateway interface {
		CreatePayout(ctx context.Context, req entity.PayoutRequest) (entity.PayoutConfirmation, error)
	}

	BalanceOracle interface {
		Balance(ctx context.Context) (decimal.Decimal, error)
	}

	OutcomePublisher interface {
		Publish(ctx context.Context, outcome entity.PayoutOutcome) error
		Close() error
	}
)
