// Package loop runs callbacks one at a time on a single goroutine.
//
// Everything that touches a session's document or selection store is posted
// to its Loop, so gesture handlers, timers and command-channel requests never
// interleave. The loop has two queues: tasks, executed in FIFO order, and
// timers, executed once their due time has passed.
package loop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrClosed is returned by Call once the loop has stopped running.
var ErrClosed = errors.New("loop closed")

// Clock supplies the current time. Tests substitute a manual clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Loop is a single-threaded task queue with timers.
type Loop struct {
	tasks  []func()
	mu     sync.Mutex
	wake   chan struct{}
	done   chan struct{}
	closed bool

	timers *timerManager
	clock  Clock
	logger *slog.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithClock sets the loop's clock.
func WithClock(c Clock) Option {
	return func(l *Loop) { l.clock = c }
}

// WithLogger sets the loop's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) { l.logger = logger }
}

// New creates an idle loop. Call Run to start processing, or drive it with
// RunOnce.
func New(opts ...Option) *Loop {
	l := &Loop{
		tasks:  make([]func(), 0),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		clock:  systemClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.timers = newTimerManager(l.clock)
	return l
}

// Post queues fn to run on the loop.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	l.signal()
}

// Call runs fn on the loop and waits for it to finish, or for ctx to end.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	l.Post(func() {
		defer close(finished)
		fn()
	})
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetTimeout schedules fn to run once after delay and returns its id.
func (l *Loop) SetTimeout(fn func(), delay time.Duration) int {
	id := l.timers.setTimeout(fn, delay)
	l.signal()
	return id
}

// ClearTimeout cancels a pending timer. Unknown ids are ignored.
func (l *Loop) ClearTimeout(id int) {
	l.timers.clearTimer(id)
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// RunOnce runs every queued task, including ones queued while draining, then
// every due timer. It returns true if work is still pending.
func (l *Loop) RunOnce() bool {
	for {
		l.mu.Lock()
		if len(l.tasks) == 0 {
			l.mu.Unlock()
			break
		}
		t := l.tasks[0]
		l.tasks = l.tasks[1:]
		l.mu.Unlock()

		l.execute(t)
	}

	for _, fn := range l.timers.takeDue() {
		l.execute(fn)
	}

	return l.HasPending()
}

// execute runs fn, turning a panic into a logged error so one bad callback
// cannot stop the loop.
func (l *Loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop task panicked", "error", fmt.Sprint(r))
		}
	}()
	fn()
}

// HasPending reports whether any task or timer is waiting.
func (l *Loop) HasPending() bool {
	l.mu.Lock()
	n := len(l.tasks)
	l.mu.Unlock()
	return n > 0 || l.timers.hasPending()
}

// Run processes tasks and timers until ctx is done. Tasks queued when ctx
// ends are dropped.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()
		close(l.done)
	}()

	for {
		l.RunOnce()

		var timer *time.Timer
		var timeout <-chan time.Time
		if l.timers.hasPending() {
			timer = time.NewTimer(l.timers.nextDue())
			timeout = timer.C
		}

		var err error
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-l.wake:
		case <-timeout:
		}
		if timer != nil {
			timer.Stop()
		}
		if err != nil {
			return err
		}
	}
}

// Closed reports whether Run has returned.
func (l *Loop) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}
