// Package scheduler runs recurring background jobs on fixed intervals.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Job is one unit of recurring work
type Job func(ctx context.Context) error

// Ticker delivers ticks on C until stopped
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	*time.Ticker
}

func (t timeTicker) C() <-chan time.Time {
	return t.Ticker.C
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithRunOnStart fires every job once as soon as Run starts
func WithRunOnStart(enabled bool) Option {
	return func(s *Scheduler) {
		s.runOnStart = enabled
	}
}

// WithTickerFactory replaces the wall-clock ticker
func WithTickerFactory(f func(time.Duration) Ticker) Option {
	return func(s *Scheduler) {
		s.newTicker = f
	}
}

type entry struct {
	name     string
	interval time.Duration
	job      Job
}

// Scheduler runs registered jobs until its context is cancelled. A failing
// job stays registered and runs again on the next tick.
type Scheduler struct {
	logger     *logrus.Logger
	newTicker  func(time.Duration) Ticker
	runOnStart bool

	mu      sync.Mutex
	entries []entry
	running bool
}

// New creates a scheduler
func New(logger *logrus.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		logger: logger,
		newTicker: func(d time.Duration) Ticker {
			return timeTicker{time.NewTicker(d)}
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunEvery registers job to run once per interval
func (s *Scheduler) RunEvery(name string, interval time.Duration, job Job) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}
	if job == nil {
		return fmt.Errorf("job %s: nil job", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("job %s: scheduler already running", name)
	}
	s.entries = append(s.entries, entry{name: name, interval: interval, job: job})
	return nil
}

// Run starts every registered job and blocks until ctx is cancelled
func (s *Scheduler) Run(ctx context.Context) {
	s.mu.Lock()
	s.running = true
	entries := append([]entry(nil), s.entries...)
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, e := range entries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.loop(ctx, e)
		}()
	}
	wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, e entry) {
	logger := s.logger.WithFields(logrus.Fields{
		"job":      e.name,
		"interval": e.interval.String(),
	})
	logger.Info("Scheduled job registered")

	ticker := s.newTicker(e.interval)
	defer ticker.Stop()

	if s.runOnStart {
		s.execute(ctx, e, logger)
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopping scheduled job")
			return
		case <-ticker.C():
			s.execute(ctx, e, logger)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, e entry, logger *logrus.Entry) {
	logger = logger.WithField("tick_id", uuid.NewString())
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", r).Error("Scheduled job panicked")
		}
	}()

	if err := e.job(ctx); err != nil {
		logger.WithError(err).WithField("duration", time.Since(start).String()).Error("Scheduled job failed")
		return
	}
	logger.WithField("duration", time.Since(start).String()).Info("Scheduled job completed")
}
