package usecase

import (
	"context"

	"github.com/andreyxaxa/payout-controller/internal/entity"
	"github.com/shopspring/decimal"
)

type (
	PayoutExecutor interface {
		Attempt(ctx context.Context, amount decimal.Decimal, recipient string) (entity.PayoutConfirmation, error)
	}

	// OutcomeRecorder never fails towards the caller.
	OutcomeRecorder interface {
		RecordSuccess(ctx context.Context, outcome entity.PayoutOutcome)
		RecordFailure(ctx context.Context, recipient string, amount decimal.Decimal, detail string)
	}

	ChainRunner interface {
		Run(ctx context.Context, amount decimal.Decimal) entity.ChainResult
	}

	PayoutSubmitter interface {
		Submit(amount decimal.Decimal) error
	}

	PayoutQueue interface {
		PayoutSubmitter
		Stats() entity.QueueStats
	}

	DisbursementUseCase interface {
		Run(ctx context.Context) (entity.Decision, error)
	}
)
