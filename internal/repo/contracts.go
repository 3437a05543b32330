package repo

import (
	"context"

	"github.com/andreyxaxa/payout-controller/internal/entity"
)

type (
	// PayoutHistoryRepo is an append-only sink for payout outcomes.
	PayoutHistoryRepo interface {
		Save(ctx context.Context, outcome entity.PayoutOutcome) error
	}
)
