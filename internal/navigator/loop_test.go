package navigator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_RunsTasksInOrder(t *testing.T) {
	var (
		mu    sync.Mutex
		order []int
		busy  []bool
	)
	loop := NewLoop(func(b bool) {
		mu.Lock()
		busy = append(busy, b)
		mu.Unlock()
	})

	done := make(chan struct{})
	for i := range 3 {
		loop.Submit(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			if i == 0 {
				loop.Defer(func() {
					mu.Lock()
					order = append(order, 10)
					mu.Unlock()
					close(done)
				})
			}
		})
	}
	assert.Equal(t, 3, loop.Pending())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not run queued tasks")
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(busy) == 2
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 10}, order, "deferred work queues behind pending tasks")
	assert.Equal(t, []bool{true, false}, busy)
}

func TestLoop_WakesForLateSubmissions(t *testing.T) {
	loop := NewLoop(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	ran := make(chan struct{})
	time.Sleep(10 * time.Millisecond)
	loop.Submit(func() { close(ran) })

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("task submitted to an idle loop never ran")
	}
}
