package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type blockingService struct {
	started atomic.Bool
	stopped atomic.Bool
	stop    chan struct{}
	once    sync.Once
}

func newBlockingService() *blockingService {
	return &blockingService{stop: make(chan struct{})}
}

func (b *blockingService) Start() error {
	b.started.Store(true)
	<-b.stop
	return nil
}

func (b *blockingService) Stop() {
	b.stopped.Store(true)
	b.once.Do(func() { close(b.stop) })
}

func waitStarted(t *testing.T, svcs ...*blockingService) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, s := range svcs {
			if !s.started.Load() {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)
}

func runAsync(ctx context.Context, lc *Lifecycle) <-chan error {
	done := make(chan error, 1)
	go func() { done <- lc.Run(ctx) }()
	return done
}

func TestLifecycle_ContextCancelStopsEveryService(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	tick := newBlockingService()
	audio := newBlockingService()
	lc.Add("tick", tick)
	lc.Add("audio", audio)

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, lc)
	waitStarted(t, tick, audio)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down in time")
	}
	assert.True(t, tick.stopped.Load())
	assert.True(t, audio.stopped.Load())
}

func TestLifecycle_ServiceReturningEndsTheRun(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	tick := newBlockingService()
	quit := make(chan struct{})
	lc.Add("tick", tick)
	lc.Add("tui", &FuncService{
		StartFn: func() error { <-quit; return nil },
		StopFn:  func() {},
	})

	done := runAsync(context.Background(), lc)
	waitStarted(t, tick)
	close(quit)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down in time")
	}
	assert.True(t, tick.stopped.Load())
}

func TestLifecycle_ServiceFailureIsReturned(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	boom := errors.New("no audio device")
	tick := newBlockingService()
	lc.Add("tick", tick)
	lc.Add("audio", &FuncService{
		StartFn: func() error { return boom },
		StopFn:  func() {},
	})

	err := <-runAsync(context.Background(), lc)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "service audio")
	assert.True(t, tick.stopped.Load())
}

func TestLifecycle_StopsInReverseOrder(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	var mu sync.Mutex
	var order []string
	for _, name := range []string{"first", "second", "third"} {
		lc.Add(name, &FuncService{
			StartFn: func() error { select {} },
			StopFn: func() {
				mu.Lock()
				defer mu.Unlock()
				order = append(order, name)
			},
		})
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, lc.Run(ctx))
	assert.Equal(t, []string{"third", "second", "first"}, order)
}

func TestFuncService(t *testing.T) {
	started := false
	stopped := false

	svc := &FuncService{
		StartFn: func() error {
			started = true
			return nil
		},
		StopFn: func() {
			stopped = true
		},
	}

	err := svc.Start()
	assert.NoError(t, err)
	assert.True(t, started)

	svc.Stop()
	assert.True(t, stopped)
}
