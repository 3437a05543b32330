package disbursement

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/andreyxaxa/payout-controller/pkg/logger"
	"github.com/andreyxaxa/payout-controller/pkg/types/errs"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name    string
		balance string
		reserve string
		want    string
		ok      bool
	}{
		{"above reserve", "150.00", "20.00", "130.00", true},
		{"below reserve", "15.00", "20.00", "0", false},
		{"equal to reserve", "20.00", "20.00", "0", false},
		{"one cent above", "20.01", "20.00", "0.01", true},
		{"zero balance", "0", "20.00", "0", false},
		{"zero reserve", "5", "0", "5", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Decide(d(tt.balance), d(tt.reserve))
			assert.Equal(t, tt.ok, ok)
			assert.True(t, got.Equal(d(tt.want)), "got %s", got)
		})
	}
}

func TestDecide_Property(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		balance := decimal.New(rnd.Int63n(1_000_000), -2)
		reserve := decimal.New(rnd.Int63n(1_000_000), -2)

		got, ok := Decide(balance, reserve)
		if balance.LessThanOrEqual(reserve) {
			assert.False(t, ok)
			continue
		}

		require.True(t, ok)
		assert.True(t, got.IsPositive())
		assert.True(t, got.Add(reserve).Equal(balance))
	}
}

type fakeOracle struct {
	balance decimal.Decimal
	err     error
}

func (o *fakeOracle) Balance(context.Context) (decimal.Decimal, error) {
	return o.balance, o.err
}

type fakeQueue struct {
	submitted []decimal.Decimal
	err       error
}

func (q *fakeQueue) Submit(amount decimal.Decimal) error {
	if q.err != nil {
		return q.err
	}
	q.submitted = append(q.submitted, amount)

	return nil
}

func newUseCase(oracle *fakeOracle, queue *fakeQueue) (*DisbursementUseCase, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)

	return New(oracle, queue, logger.NewWithCore(core), d("20.00")), logs
}

func TestRun_SubmitsAmountAboveReserve(t *testing.T) {
	queue := &fakeQueue{}
	uc, _ := newUseCase(&fakeOracle{balance: d("150.00")}, queue)

	decision, err := uc.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, decision.Submitted)
	assert.True(t, decision.Amount.Equal(d("130.00")))
	assert.True(t, decision.Balance.Equal(d("150.00")))
	require.Len(t, queue.submitted, 1)
	assert.True(t, queue.submitted[0].Equal(d("130.00")))
}

func TestRun_BalanceTooLow(t *testing.T) {
	queue := &fakeQueue{}
	uc, logs := newUseCase(&fakeOracle{balance: d("15.00")}, queue)

	decision, err := uc.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, decision.Submitted)
	assert.True(t, decision.Amount.IsZero())
	assert.Empty(t, queue.submitted)
	assert.Equal(t, 1, logs.FilterMessage("balance too low, balance = 15.00, reserve = 20.00").Len())
}

func TestRun_OracleError(t *testing.T) {
	queue := &fakeQueue{}
	uc, _ := newUseCase(&fakeOracle{err: errors.New("oracle down")}, queue)

	_, err := uc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle down")
	assert.Empty(t, queue.submitted)
}

func TestRun_QueueClosed(t *testing.T) {
	uc, _ := newUseCase(&fakeOracle{balance: d("150.00")}, &fakeQueue{err: errs.ErrQueueClosed})

	decision, err := uc.Run(context.Background())
	assert.ErrorIs(t, err, errs.ErrQueueClosed)
	assert.False(t, decision.Submitted)
}

func TestRun_SubmitsWholeCents(t *testing.T) {
	queue := &fakeQueue{}
	uc, logs := newUseCase(&fakeOracle{balance: d("150.005")}, queue)

	decision, err := uc.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, decision.Submitted)
	assert.True(t, decision.Amount.Equal(d("130.00")), decision.Amount.String())
	require.Len(t, queue.submitted, 1)
	assert.True(t, queue.submitted[0].Equal(d("130.00")), queue.submitted[0].String())
	assert.Equal(t, 1, logs.FilterMessage("payout submitted, amount = 130.00").Len())
}

func TestRun_SubCentSurplusIsNotSubmitted(t *testing.T) {
	queue := &fakeQueue{}
	uc, logs := newUseCase(&fakeOracle{balance: d("20.009")}, queue)

	decision, err := uc.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, decision.Submitted)
	assert.True(t, decision.Amount.IsZero())
	assert.Empty(t, queue.submitted)
	assert.Equal(t, 1, logs.FilterMessage("balance too low, balance = 20.01, reserve = 20.00").Len())
}
