package disbursement

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/payout-controller/internal/entity"
	"github.com/andreyxaxa/payout-controller/internal/infrastructure"
	"github.com/andreyxaxa/payout-controller/internal/usecase"
	"github.com/andreyxaxa/payout-controller/pkg/logger"
	"github.com/shopspring/decimal"
)

// _payoutPlaces is the precision the gateway accepts.
const _payoutPlaces = 2

// Decide returns the amount to pay out, everything above the reserve.
// ok is false when the balance does not exceed the reserve.
func Decide(balance, minimumReserve decimal.Decimal) (amount decimal.Decimal, ok bool) {
	if balance.LessThanOrEqual(minimumReserve) {
		return decimal.Zero, false
	}

	return balance.Sub(minimumReserve), true
}

type DisbursementUseCase struct {
	oracle infrastructure.BalanceOracle
	queue  usecase.PayoutSubmitter
	logger logger.Interface

	minimumReserve decimal.Decimal
}

func New(
	oracle infrastructure.BalanceOracle,
	queue usecase.PayoutSubmitter,
	l logger.Interface,
	minimumReserve decimal.Decimal,
) *DisbursementUseCase {
	return &DisbursementUseCase{
		oracle:         oracle,
		queue:          queue,
		logger:         l,
		minimumReserve: minimumReserve,
	}
}

// Run performs one disbursement cycle. It only hands the amount to the queue,
// the payout itself finishes later.
func (uc *DisbursementUseCase) Run(ctx context.Context) (entity.Decision, error) {
	decision := entity.Decision{Reserve: uc.minimumReserve}

	balance, err := uc.oracle.Balance(ctx)
	if err != nil {
		return decision, fmt.Errorf("DisbursementUseCase - Run - uc.oracle.Balance: %w", err)
	}
	decision.Balance = balance

	amount, ok := Decide(balance, uc.minimumReserve)
	// sub-cent remainders stay in the account
	amount = amount.Truncate(_payoutPlaces)
	if !ok || !amount.IsPositive() {
		uc.logger.Info("balance too low, balance = %s, reserve = %s", balance.StringFixed(2), uc.minimumReserve.StringFixed(2))

		return decision, nil
	}
	decision.Amount = amount

	err = uc.queue.Submit(amount)
	if err != nil {
		return decision, fmt.Errorf("DisbursementUseCase - Run - uc.queue.Submit: %w", err)
	}
	decision.Submitted = true

	uc.logger.Info("payout submitted, amount = %s", amount.StringFixed(2))

	return decision, nil
}
