package payoutqueue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andreyxaxa/payout-controller/internal/entity"
	"github.com/andreyxaxa/payout-controller/pkg/logger"
	"github.com/andreyxaxa/payout-controller/pkg/types/errs"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type fakeRunner struct {
	mu      sync.Mutex
	order   []string
	active  atomic.Int32
	maxSeen atomic.Int32

	run func(ctx context.Context, amount decimal.Decimal) entity.ChainResult
}

func (r *fakeRunner) Run(ctx context.Context, amount decimal.Decimal) entity.ChainResult {
	n := r.active.Add(1)
	defer r.active.Add(-1)

	for {
		seen := r.maxSeen.Load()
		if n <= seen || r.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	r.mu.Lock()
	r.order = append(r.order, amount.String())
	r.mu.Unlock()

	if r.run != nil {
		return r.run(ctx, amount)
	}

	return entity.ChainResult{State: entity.Succeeded, Attempts: 1, Confirmation: &entity.PayoutConfirmation{BatchID: "PB-" + amount.String()}}
}

func (r *fakeRunner) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.order...)
}

func newQueue(t *testing.T, runner *fakeRunner) (*SingleFlightQueue, *observer.ObservedLogs) {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	q := New(runner, logger.NewWithCore(core))

	t.Cleanup(func() {
		_ = q.Shutdown(context.Background())
	})

	return q, logs
}

func TestSingleFlightQueue_FIFO(t *testing.T) {
	runner := &fakeRunner{}
	q, _ := newQueue(t, runner)

	for _, a := range []int64{1, 2, 3, 4, 5} {
		require.NoError(t, q.Submit(decimal.NewFromInt(a)))
	}
	assert.Equal(t, 5, q.Stats().Pending)

	require.NoError(t, q.Start(context.Background()))

	require.Eventually(t, func() bool { return q.Stats().Processed == 5 }, waitFor, tick)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, runner.calls())
	assert.Equal(t, int64(5), q.Stats().Succeeded)
	assert.Equal(t, int32(1), runner.maxSeen.Load())
}

func TestSingleFlightQueue_SecondWaitsForFirstChain(t *testing.T) {
	release := make(chan struct{})
	started := make(chan string, 2)

	runner := &fakeRunner{
		run: func(_ context.Context, amount decimal.Decimal) entity.ChainResult {
			started <- amount.String()
			if amount.Equal(decimal.NewFromInt(1)) {
				<-release
			}

			return entity.ChainResult{State: entity.Succeeded, Attempts: 1}
		},
	}
	q, _ := newQueue(t, runner)
	require.NoError(t, q.Start(context.Background()))

	require.NoError(t, q.Submit(decimal.NewFromInt(1)))
	assert.Equal(t, "1", <-started)
	assert.True(t, q.Stats().InFlight)

	require.NoError(t, q.Submit(decimal.NewFromInt(2)))

	select {
	case got := <-started:
		t.Fatalf("chain %s started while another was in flight", got)
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 1, q.Stats().Pending)

	close(release)

	select {
	case got := <-started:
		assert.Equal(t, "2", got)
	case <-time.After(waitFor):
		t.Fatal("second chain never started")
	}

	require.Eventually(t, func() bool { return q.Stats().Processed == 2 }, waitFor, tick)
	assert.Equal(t, int32(1), runner.maxSeen.Load())
}

func TestSingleFlightQueue_ConcurrentSubmitters(t *testing.T) {
	runner := &fakeRunner{
		run: func(context.Context, decimal.Decimal) entity.ChainResult {
			time.Sleep(time.Millisecond)

			return entity.ChainResult{State: entity.Succeeded, Attempts: 1}
		},
	}
	q, _ := newQueue(t, runner)
	require.NoError(t, q.Start(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, q.Submit(decimal.NewFromInt(int64(i))))
		}(i)
	}
	wg.Wait()

	require.Eventually(t, func() bool { return q.Stats().Processed == 20 }, waitFor, tick)
	assert.Equal(t, int32(1), runner.maxSeen.Load())
}

func TestSingleFlightQueue_CountsOutcomes(t *testing.T) {
	runner := &fakeRunner{
		run: func(_ context.Context, amount decimal.Decimal) entity.ChainResult {
			if amount.Equal(decimal.NewFromInt(2)) {
				return entity.ChainResult{State: entity.PermanentlyFailed, Attempts: 3, Err: errors.New("gateway down")}
			}

			return entity.ChainResult{State: entity.Succeeded, Attempts: 1}
		},
	}
	q, logs := newQueue(t, runner)
	require.NoError(t, q.Start(context.Background()))

	require.NoError(t, q.Submit(decimal.NewFromInt(1)))
	require.NoError(t, q.Submit(decimal.NewFromInt(2)))

	require.Eventually(t, func() bool { return q.Stats().Processed == 2 }, waitFor, tick)

	s := q.Stats()
	assert.Equal(t, int64(1), s.Succeeded)
	assert.Equal(t, int64(1), s.Failed)
	assert.False(t, s.InFlight)

	failed := logs.FilterMessage("SingleFlightQueue - run").All()
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0].ContextMap()["error"], "gateway down")
}

func TestSingleFlightQueue_RecoversPanic(t *testing.T) {
	runner := &fakeRunner{
		run: func(_ context.Context, amount decimal.Decimal) entity.ChainResult {
			if amount.Equal(decimal.NewFromInt(1)) {
				panic("boom")
			}

			return entity.ChainResult{State: entity.Succeeded, Attempts: 1}
		},
	}
	q, logs := newQueue(t, runner)
	require.NoError(t, q.Start(context.Background()))

	require.NoError(t, q.Submit(decimal.NewFromInt(1)))
	require.NoError(t, q.Submit(decimal.NewFromInt(2)))

	require.Eventually(t, func() bool { return q.Stats().Processed == 2 }, waitFor, tick)
	assert.Equal(t, int64(1), q.Stats().Failed)
	assert.Equal(t, int64(1), q.Stats().Succeeded)
	assert.Equal(t, 1, logs.FilterMessage("SingleFlightQueue - run - panic").Len())
}

func TestSingleFlightQueue_ShutdownAbortsInFlightChain(t *testing.T) {
	inFlight := make(chan struct{})
	runner := &fakeRunner{
		run: func(ctx context.Context, _ decimal.Decimal) entity.ChainResult {
			close(inFlight)
			<-ctx.Done()

			return entity.ChainResult{State: entity.Aborted, Attempts: 1, Err: ctx.Err()}
		},
	}
	q, _ := newQueue(t, runner)
	require.NoError(t, q.Start(context.Background()))

	require.NoError(t, q.Submit(decimal.NewFromInt(1)))
	require.NoError(t, q.Submit(decimal.NewFromInt(2)))
	<-inFlight

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, q.Shutdown(ctx))

	s := q.Stats()
	assert.Equal(t, int64(1), s.Aborted)
	assert.Equal(t, int64(1), s.Processed)
	assert.Zero(t, s.Pending)
	assert.Equal(t, []string{"1"}, runner.calls())

	assert.ErrorIs(t, q.Submit(decimal.NewFromInt(3)), errs.ErrQueueClosed)
}

func TestSingleFlightQueue_ShutdownBeforeStart(t *testing.T) {
	q, _ := newQueue(t, &fakeRunner{})

	require.NoError(t, q.Shutdown(context.Background()))
	assert.ErrorIs(t, q.Submit(decimal.NewFromInt(1)), errs.ErrQueueClosed)
}

func TestSingleFlightQueue_StartTwice(t *testing.T) {
	q, _ := newQueue(t, &fakeRunner{})

	require.NoError(t, q.Start(context.Background()))
	assert.Error(t, q.Start(context.Background()))
}
