package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

type fakeTicker struct {
	c       chan time.Time
	stopped atomic.Bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.c }
func (f *fakeTicker) Stop()               { f.stopped.Store(true) }

func newFakeScheduler(opts ...Option) (*Scheduler, chan *fakeTicker) {
	tickers := make(chan *fakeTicker, 4)
	opts = append(opts, WithTickerFactory(func(time.Duration) Ticker {
		ft := &fakeTicker{c: make(chan time.Time)}
		tickers <- ft
		return ft
	}))
	return New(logrus.New(), opts...), tickers
}

func TestScheduler_RunsJobOncePerTick(t *testing.T) {
	const ticks = 5

	s, tickers := newFakeScheduler()
	calls := make(chan int, ticks)
	var n int32
	require.NoError(t, s.RunEvery("adverts-delta-sync", 24*time.Hour, func(ctx context.Context) error {
		i := int(atomic.AddInt32(&n, 1))
		calls <- i
		if i%2 == 0 {
			return errors.New("upstream down")
		}
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	var ticker *fakeTicker
	select {
	case ticker = <-tickers:
	case <-time.After(testTimeout):
		t.Fatal("ticker was not created")
	}

	for i := 0; i < ticks; i++ {
		ticker.c <- time.Now()
		select {
		case got := <-calls:
			assert.Equal(t, i+1, got)
		case <-time.After(testTimeout):
			t.Fatalf("tick %d did not run the job", i+1)
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(testTimeout):
		t.Fatal("scheduler did not stop")
	}

	assert.Equal(t, int32(ticks), atomic.LoadInt32(&n))
	assert.True(t, ticker.stopped.Load())
}

func TestScheduler_PanickingJobKeepsRunning(t *testing.T) {
	s, tickers := newFakeScheduler()
	calls := make(chan struct{}, 2)
	require.NoError(t, s.RunEvery("rate-refresh", time.Hour, func(ctx context.Context) error {
		calls <- struct{}{}
		panic("feed changed format")
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	ticker := <-tickers
	for i := 0; i < 2; i++ {
		ticker.c <- time.Now()
		select {
		case <-calls:
		case <-time.After(testTimeout):
			t.Fatal("job did not run after panic")
		}
	}
}

func TestScheduler_RunOnStart(t *testing.T) {
	s, _ := newFakeScheduler(WithRunOnStart(true))
	calls := make(chan struct{}, 1)
	require.NoError(t, s.RunEvery("adverts-delta-sync", time.Hour, func(ctx context.Context) error {
		calls <- struct{}{}
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	select {
	case <-calls:
	case <-time.After(testTimeout):
		t.Fatal("job did not run on start")
	}
}

func TestScheduler_RunEveryValidation(t *testing.T) {
	s := New(logrus.New())
	noop := func(ctx context.Context) error { return nil }

	assert.Error(t, s.RunEvery("zero", 0, noop))
	assert.Error(t, s.RunEvery("nil", time.Hour, nil))
	assert.NoError(t, s.RunEvery("ok", time.Hour, noop))
}

func TestScheduler_RealTicker(t *testing.T) {
	s := New(logrus.New())
	var n int32
	require.NoError(t, s.RunEvery("fast", 10*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt32(&n, 1)
		return nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	assert.GreaterOrEqual(t, atomic.LoadInt32(&n), int32(2))
}
