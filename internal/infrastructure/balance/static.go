package balance

import (
	"context"

	"github.com/shopspring/decimal"
)

// Static reports a fixed balance. It stands in for a real account lookup.
type Static struct {
	amount decimal.Decimal
}

func NewStatic(amount decimal.Decimal) *Static {
	return &Static{amount: amount}
}

func (s *Static) Balance(ctx context.Context) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Decimal{}, err
	}

	return s.amount, nil
}
