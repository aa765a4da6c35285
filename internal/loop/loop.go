// Package loop provides the single-threaded event loop the overlay runs on. Work
// is posted as tasks; delays are fire-and-forget timers that post their task back
// onto the loop when they expire, so no two tasks ever run at the same time.
package loop

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Timer is a scheduled task that can still be cancelled
type Timer interface {
	// Stop cancels the task, reporting whether it had not run yet
	Stop() bool
}

// Scheduler runs tasks one at a time
type Scheduler interface {
	Post(fn func())
	After(d time.Duration, fn func()) Timer
	Now() time.Time
}

// Loop is the real-time Scheduler: a queue drained by Run on one goroutine
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	running bool
}

// New creates a Loop; call Run to start draining it
func New() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post queues fn to run on the loop
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

const (
	timerPending int32 = iota
	timerFired
	timerStopped
)

type realTimer struct {
	t     *time.Timer
	state atomic.Int32
}

// Stop also cancels a task that expired and was posted but has not run yet
func (r *realTimer) Stop() bool {
	r.t.Stop()
	return r.state.CompareAndSwap(timerPending, timerStopped)
}

// AfterFunc arms a wall-clock timer that hands fn to post once d has elapsed.
// The returned Timer can cancel fn up to the moment it runs.
func AfterFunc(d time.Duration, post func(func()), fn func()) Timer {
	r := &realTimer{}
	r.t = time.AfterFunc(d, func() {
		post(func() {
			if r.state.CompareAndSwap(timerPending, timerFired) {
				fn()
			}
		})
	})
	return r
}

// After posts fn onto the loop once d has elapsed
func (l *Loop) After(d time.Duration, fn func()) Timer {
	return AfterFunc(d, l.Post, fn)
}

// Now returns the wall clock
func (l *Loop) Now() time.Time { return time.Now() }

// Run drains the queue until ctx is cancelled. Tasks still queued at that point
// are dropped.
func (l *Loop) Run(ctx context.Context) {
	l.mu.Lock()
	l.running = true
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		l.running = false
		l.queue = nil
		l.mu.Unlock()
	}()
	for {
		for {
			l.mu.Lock()
			if len(l.queue) == 0 {
				l.mu.Unlock()
				break
			}
			fn := l.queue[0]
			l.queue = l.queue[1:]
			l.mu.Unlock()
			if ctx.Err() != nil {
				return
			}
			fn()
		}
		select {
		case <-ctx.Done():
			return
		case <-l.wake:
		}
	}
}

// Running reports whether Run is draining the loop
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Sync posts fn and blocks until it has run on the loop, or ctx ends
func Sync(ctx context.Context, s Scheduler, fn func()) error {
	done := make(chan struct{})
	s.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
