package wake

import (
	"sync"
	"time"
)

// DefaultWindowTimeout closes an idle wake window after this long without
// speech or transcript activity.
const DefaultWindowTimeout = 5 * time.Second

// Window tracks the bounded listening period that a wake detection opens.
// Activity extends it; silence past the timeout closes it. The clock is
// injected so tests control time.
type Window struct {
	mu           sync.Mutex
	timeout      time.Duration
	now          func() time.Time
	open         bool
	lastActivity time.Time
}

func NewWindow(timeout time.Duration, now func() time.Time) *Window {
	if timeout <= 0 {
		timeout = DefaultWindowTimeout
	}
	if now == nil {
		now = time.Now
	}
	return &Window{timeout: timeout, now: now}
}

// SetTimeout retunes the idle timeout. An open window keeps running against
// the new value from its existing activity baseline.
func (w *Window) SetTimeout(timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultWindowTimeout
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.timeout = timeout
}

// Open starts (or restarts) the window.
func (w *Window) Open() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.open = true
	w.lastActivity = w.now()
}

// Close ends the window regardless of remaining time.
func (w *Window) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.open = false
}

// IsOpen reports whether the window is currently active.
func (w *Window) IsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.open
}

// OnActivity extends an open window; a closed window is unaffected.
func (w *Window) OnActivity() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.open {
		w.lastActivity = w.now()
	}
}

// PollTimeout reports whether the window expired, closing it when so.
// Subsequent polls return false until the window is reopened.
func (w *Window) PollTimeout() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.open {
		return false
	}
	if w.now().Sub(w.lastActivity) < w.timeout {
		return false
	}
	w.open = false
	return true
}

// Remaining returns the time left before expiry, zero when closed.
func (w *Window) Remaining() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.open {
		return 0
	}
	left := w.timeout - w.now().Sub(w.lastActivity)
	if left < 0 {
		return 0
	}
	return left
}
