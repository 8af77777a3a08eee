package navigator

import (
	"context"
	"sync"
)

// Scheduler queues a unit of work behind whatever is already queued.
type Scheduler interface {
	Defer(task func())
}

// Loop runs tasks one at a time on a single goroutine. All navigator state
// is owned by tasks running on the loop.
type Loop struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
	busy  func(bool)
}

var _ Scheduler = (*Loop)(nil)

// NewLoop returns an idle loop. busy, if set, is called with true when the
// loop starts working through a non-empty queue and with false once the
// queue drains.
func NewLoop(busy func(bool)) *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		busy: busy,
	}
}

// Submit queues a task. It is safe to call from any goroutine.
func (l *Loop) Submit(task func()) {
	l.mu.Lock()
	l.queue = append(l.queue, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Defer queues a follow-up task. Work already queued, such as pending input,
// runs first.
func (l *Loop) Defer(task func()) {
	l.Submit(task)
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	task := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return task, true
}

// Run executes queued tasks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	working := false
	for {
		task, ok := l.next()
		if !ok {
			if working {
				working = false
				l.notify(false)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-l.wake:
				continue
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !working {
			working = true
			l.notify(true)
		}
		task()
	}
}

func (l *Loop) notify(busy bool) {
	if l.busy != nil {
		l.busy(busy)
	}
}
