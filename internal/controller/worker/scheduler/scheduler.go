package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andreyxaxa/payout-controller/internal/usecase"
	"github.com/andreyxaxa/payout-controller/pkg/logger"
	"github.com/robfig/cron/v3"
)

const _maxLookups = 4

var errNoMatch = errors.New("cron schedule has no upcoming match")

// Scheduler triggers a disbursement cycle at every cron match. The schedule
// is matched against wall-clock time in loc.
type Scheduler struct {
	disb     usecase.DisbursementUseCase
	schedule cron.Schedule
	loc      *time.Location
	logger   logger.Interface

	runTimeout time.Duration
	runOnStart bool

	now   func() time.Time
	after func(time.Duration) <-chan time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(
	disb usecase.DisbursementUseCase,
	schedule cron.Schedule,
	loc *time.Location,
	l logger.Interface,
	runTimeout time.Duration,
	runOnStart bool,
) *Scheduler {
	return &Scheduler{
		disb:       disb,
		schedule:   schedule,
		loc:        loc,
		logger:     l,
		runTimeout: runTimeout,
		runOnStart: runOnStart,
		now:        time.Now,
		after:      time.After,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return fmt.Errorf("Scheduler - Start - worker already started")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.loop()

	return nil
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	if s.runOnStart {
		s.tick()
	}

	for {
		next, err := s.nextRun(s.now())
		if err != nil {
			s.logger.Error(err, "Scheduler - loop - s.nextRun")

			return
		}

		s.logger.Info("next disbursement at %s", next.Format(time.RFC3339))

		select {
		case <-s.ctx.Done():
			return
		case <-s.after(next.Sub(s.now())):
			s.tick()
		}
	}
}

// nextRun returns the first instant after from whose wall clock in s.loc
// matches the schedule. A wall time skipped by a forward transition runs
// shifted by the gap; a wall time repeated by a backward one runs once.
func (s *Scheduler) nextRun(from time.Time) (time.Time, error) {
	wall := wallClock(from.In(s.loc))

	for i := 0; i < _maxLookups; i++ {
		wall = s.schedule.Next(wall)
		if wall.IsZero() {
			return time.Time{}, errNoMatch
		}

		next := s.resolve(wall)
		if next.After(from) {
			return next, nil
		}
	}

	return time.Time{}, errNoMatch
}

// resolve maps a wall-clock time (carried in UTC) to the earliest instant in
// s.loc showing that wall clock.
func (s *Scheduler) resolve(wall time.Time) time.Time {
	approx := time.Date(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), wall.Minute(), 0, 0, s.loc)
	// offsets in force around the wall time; zone transitions are never a day apart
	_, before := approx.Add(-24 * time.Hour).Zone()
	_, after := approx.Add(24 * time.Hour).Zone()

	var first time.Time
	for _, offset := range []int{before, after} {
		t := wall.Add(-time.Duration(offset) * time.Second)
		if wallClock(t.In(s.loc)).Equal(wall) && (first.IsZero() || t.Before(first)) {
			first = t
		}
	}

	if first.IsZero() {
		first = wall.Add(-time.Duration(before) * time.Second)
	}

	return first.In(s.loc)
}

func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

func (s *Scheduler) tick() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(fmt.Errorf("panic %v", r), "Scheduler - tick - panic")
		}
	}()

	ctx, cancel := context.WithTimeout(s.ctx, s.runTimeout)
	defer cancel()

	_, err := s.disb.Run(ctx)
	if err != nil {
		s.logger.Error(err, "Scheduler - tick - s.disb.Run")
	}
}

func (s *Scheduler) Shutdown(ctx context.Context) error {
	if !s.started.Load() {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})

	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("Scheduler - Shutdown - ctx.Done: %w", ctx.Err())
	}
}
