// Package loop provides the single event loop that owns all voice controller state.
package loop

import (
	"context"
	"errors"
	"time"
)

// ErrStopped is returned when work is submitted after the loop has exited.
var ErrStopped = errors.New("event loop stopped")

// Timer is a pending deferred callback.
type Timer interface {
	Stop() bool
}

// Scheduler is the component-facing view of the loop.
//
// Callbacks registered through Post and AfterFunc always run on the loop goroutine.
type Scheduler interface {
	Post(fn func())
	AfterFunc(d time.Duration, fn func()) Timer
	Now() time.Time
}

// Loop serializes callbacks from engines, timers, and IPC onto one goroutine.
type Loop struct {
	events chan func()
	done   chan struct{}
	now    func() time.Time
}

// New constructs a loop with a bounded inbound queue.
func New(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 64
	}
	return &Loop{
		events: make(chan func(), buffer),
		done:   make(chan struct{}),
		now:    time.Now,
	}
}

// Post enqueues fn; it is dropped if the loop already exited.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	select {
	case l.events <- fn:
	case <-l.done:
	}
}

// AfterFunc runs fn on the loop after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, func() { l.Post(fn) })
}

// Now returns the loop clock.
func (l *Loop) Now() time.Time {
	return l.now()
}

// Call runs fn on the loop and waits for it to return.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}

	select {
	case l.events <- wrapped:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains callbacks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-l.events:
			fn()
		}
	}
}
