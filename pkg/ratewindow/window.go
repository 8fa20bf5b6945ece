// Package ratewindow implements a sliding-window rate limiter. Each
// rate-limited action class (message send, channel join, ...) owns an
// independent Window; instances share no state. Eviction of expired
// timestamps is lazy: it happens during Check, never via a background
// timer, so a large number of idle instances costs nothing.
package ratewindow

import (
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Params configures a Window.
type Params struct {
	// MaxActions is the number of actions allowed inside the window.
	MaxActions int
	// Window is the trailing interval the actions are counted over.
	Window time.Duration
}

// Validate checks that both parameters are positive.
func (p Params) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.MaxActions, validation.Required, validation.Min(1)),
		validation.Field(&p.Window, validation.Required, validation.Min(time.Millisecond)),
	)
}

// Result is the outcome of a Check call. Being blocked is an ordinary
// return value, not an error.
type Result struct {
	Allowed bool
	// RetryAfter is how long the caller must wait before the oldest
	// retained action falls out of the window. Only set when blocked;
	// always 0 < RetryAfter <= Window.
	RetryAfter time.Duration
}

// Window is a sliding-window counter over action timestamps.
type Window struct {
	mu     sync.Mutex
	params Params
	stamps []time.Time
	now    func() time.Time
}

// New creates a Window. Params are validated up front so arithmetic inside
// Check can never fail.
func New(p Params) (*Window, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Window{params: p, now: time.Now}, nil
}

// Record appends the current timestamp. No eviction happens here.
func (w *Window) Record() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stamps = append(w.stamps, w.now())
}

// Check evicts timestamps that have left the window, then reports whether
// another action is allowed right now.
func (w *Window) Check() Result {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.evict(now)

	if len(w.stamps) < w.params.MaxActions {
		return Result{Allowed: true}
	}
	return Result{
		Allowed:    false,
		RetryAfter: w.params.Window - now.Sub(w.stamps[0]),
	}
}

// Reset clears all recorded timestamps; the next Check is allowed
// regardless of history.
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stamps = nil
}

// evict drops every timestamp with now-ts >= window. Caller holds the lock.
func (w *Window) evict(now time.Time) {
	keep := 0
	for ; keep < len(w.stamps); keep++ {
		if now.Sub(w.stamps[keep]) < w.params.Window {
			break
		}
	}
	if keep > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[keep:]...)
	}
}
