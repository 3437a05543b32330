package outcome

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/andreyxaxa/payout-controller/internal/entity"
	"github.com/andreyxaxa/payout-controller/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeStore struct {
	mu      sync.Mutex
	saved   []entity.PayoutOutcome
	ctxErrs []error
	err     error
	panics  bool
}

func (s *fakeStore) Save(ctx context.Context, o entity.PayoutOutcome) error {
	if s.panics {
		panic("driver exploded")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.saved = append(s.saved, o)
	s.ctxErrs = append(s.ctxErrs, ctx.Err())

	return s.err
}

type fakePublisher struct {
	published []entity.PayoutOutcome
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, o entity.PayoutOutcome) error {
	p.published = append(p.published, o)

	return p.err
}

func (p *fakePublisher) Close() error { return nil }

func newObservedLogger() (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)

	return logger.NewWithCore(core), logs
}

func TestRecorder_RecordSuccess(t *testing.T) {
	store := &fakeStore{}
	l, logs := newObservedLogger()
	r := New(store, nil, l, time.Second)

	at := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	r.RecordSuccess(context.Background(), entity.PayoutOutcome{
		Recipient: "owner@example.com",
		Amount:    decimal.RequireFromString("130.00"),
		Detail:    "PB-42",
		CreatedAt: at,
	})

	require.Len(t, store.saved, 1)
	got := store.saved[0]
	assert.Equal(t, entity.Success, got.Status)
	assert.Equal(t, "PB-42", got.Detail)
	assert.Equal(t, at, got.CreatedAt)
	assert.Zero(t, logs.Len())
}

func TestRecorder_RecordFailure(t *testing.T) {
	store := &fakeStore{}
	l, _ := newObservedLogger()
	r := New(store, nil, l, time.Second)
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return at }

	r.RecordFailure(context.Background(), "", decimal.NewFromInt(5), "dial tcp: timeout")

	require.Len(t, store.saved, 1)
	got := store.saved[0]
	assert.Equal(t, entity.Failed, got.Status)
	assert.Equal(t, entity.UnknownRecipient, got.Recipient)
	assert.Equal(t, "dial tcp: timeout", got.Detail)
	assert.Equal(t, at, got.CreatedAt)
}

func TestRecorder_StoreErrorIsLoggedOnly(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	l, logs := newObservedLogger()
	r := New(store, nil, l, time.Second)

	assert.NotPanics(t, func() {
		r.RecordFailure(context.Background(), "owner@example.com", decimal.NewFromInt(1), "x")
	})

	entries := logs.FilterMessage("Recorder - RecordFailure - r.store.Save").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "connection refused", entries[0].ContextMap()["error"])
}

func TestRecorder_StorePanicIsRecovered(t *testing.T) {
	l, logs := newObservedLogger()
	r := New(&fakeStore{panics: true}, nil, l, time.Second)

	assert.NotPanics(t, func() {
		r.RecordSuccess(context.Background(), entity.PayoutOutcome{Recipient: "a", Detail: "PB-1"})
	})
	assert.Equal(t, 1, logs.FilterMessage("Recorder - RecordSuccess - panic").Len())
}

func TestRecorder_WritesAfterCancellation(t *testing.T) {
	store := &fakeStore{}
	l, _ := newObservedLogger()
	r := New(store, nil, l, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r.RecordFailure(ctx, "owner@example.com", decimal.NewFromInt(1), "context canceled")

	require.Len(t, store.ctxErrs, 1)
	assert.NoError(t, store.ctxErrs[0])
}

func TestRecorder_Publishes(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{err: errors.New("broker down")}
	l, logs := newObservedLogger()
	r := New(store, pub, l, time.Second)

	r.RecordSuccess(context.Background(), entity.PayoutOutcome{Recipient: "owner@example.com", Detail: "PB-1"})

	require.Len(t, pub.published, 1)
	assert.Equal(t, "PB-1", pub.published[0].Detail)
	assert.Len(t, store.saved, 1)
	assert.Equal(t, 1, logs.FilterMessage("Recorder - RecordSuccess - r.publisher.Publish").Len())
}
