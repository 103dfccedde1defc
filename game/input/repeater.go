// Package input holds the timers that turn a held key or mouse button into
// repeated simulation calls.
package input

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultDelay is the hold time before the first repeat
	DefaultDelay = 250 * time.Millisecond
	// DefaultInterval is the time between repeats
	DefaultInterval = 120 * time.Millisecond
)

// Repeater re-invokes a function on a fixed interval while an input is
// held. Starting it again re-arms it with the new function; stopping it
// simply ends the loop. Each invocation runs to completion, so there is
// nothing to roll back.
type Repeater struct {
	delay    time.Duration
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRepeater creates a stopped repeater. Non-positive durations fall back
// to the defaults.
func NewRepeater(delay, interval time.Duration) *Repeater {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Repeater{delay: delay, interval: interval}
}

// Start calls fn once right away and then keeps calling it, first after the
// delay and then every interval, until fn returns false, Stop is called or
// ctx is done. A running loop is stopped first.
//
// fn runs on the repeater's goroutine after the first call and must not
// call Stop or Start itself.
func (r *Repeater) Start(ctx context.Context, fn func() bool) {
	r.Stop()

	if !fn() {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	r.mu.Lock()
	r.cancel = cancel
	r.done = done
	r.mu.Unlock()

	go r.loop(loopCtx, done, fn)
}

func (r *Repeater) loop(ctx context.Context, done chan struct{}, fn func() bool) {
	defer close(done)

	timer := time.NewTimer(r.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	if !fn() {
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !fn() {
				return
			}
		}
	}
}

// Stop ends the loop and waits for an in-flight call to return. After Stop
// returns fn is not called again.
func (r *Repeater) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Active reports whether a loop is still running
func (r *Repeater) Active() bool {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()

	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}
