// Package runtime coordinates the voice pipeline: it owns the state
// machine, applies routing policy, arms the safety timers, and dispatches
// actions in capture order.
package runtime

import (
	"sync"
	"time"

	"github.com/voicekey-io/voicekey/internal/fsm"
	"github.com/voicekey-io/voicekey/internal/wake"
)

// TimeoutKind is the watchdog poll outcome.
type TimeoutKind string

const (
	TimeoutNone       TimeoutKind = ""
	TimeoutWakeWindow TimeoutKind = "wake_window"
	TimeoutInactivity TimeoutKind = "inactivity"
)

// DefaultInactivityTimeout auto-pauses a silent toggle or continuous
// session.
const DefaultInactivityTimeout = 30 * time.Second

// Watchdog owns the two safety timers: the wake window in wake-word mode
// and the inactivity auto-pause in toggle and continuous modes. Exactly one
// timer is armed at a time, chosen by the mode entering listening.
type Watchdog struct {
	mu sync.Mutex

	window            *wake.Window
	inactivityTimeout time.Duration
	now               func() time.Time

	inactivityArmed bool
	lastActivity    time.Time

	wakeTimeouts     int64
	inactivityPauses int64
}

func NewWatchdog(window *wake.Window, inactivityTimeout time.Duration, now func() time.Time) *Watchdog {
	if inactivityTimeout <= 0 {
		inactivityTimeout = DefaultInactivityTimeout
	}
	if now == nil {
		now = time.Now
	}
	return &Watchdog{window: window, inactivityTimeout: inactivityTimeout, now: now}
}

// SetInactivityTimeout retunes the auto-pause timer. An armed timer keeps
// its activity baseline and expires against the new duration.
func (w *Watchdog) SetInactivityTimeout(timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultInactivityTimeout
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.inactivityTimeout = timeout
}

// SetWakeWindowTimeout retunes the wake-window timer.
func (w *Watchdog) SetWakeWindowTimeout(timeout time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.window.SetTimeout(timeout)
}

// ArmForMode starts the timer matching the mode that just entered
// listening.
func (w *Watchdog) ArmForMode(mode fsm.Mode) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if mode == fsm.ModeWakeWord {
		w.window.Open()
		w.inactivityArmed = false
		return
	}
	w.window.Close()
	w.inactivityArmed = true
	w.lastActivity = w.now()
}

// Disarm stops both timers.
func (w *Watchdog) Disarm() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.window.Close()
	w.inactivityArmed = false
}

// OnActivity resets whichever timer is armed. Both speech energy and
// transcript arrivals count as activity.
func (w *Watchdog) OnActivity() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.window.OnActivity()
	if w.inactivityArmed {
		w.lastActivity = w.now()
	}
}

// Poll reports an expired timer, at most one kind per call, disarming it.
func (w *Watchdog) Poll() TimeoutKind {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.window.PollTimeout() {
		w.wakeTimeouts++
		return TimeoutWakeWindow
	}
	if w.inactivityArmed && w.now().Sub(w.lastActivity) >= w.inactivityTimeout {
		w.inactivityArmed = false
		w.inactivityPauses++
		return TimeoutInactivity
	}
	return TimeoutNone
}

// Counters reports how many timeouts of each kind have fired.
func (w *Watchdog) Counters() (wakeTimeouts, inactivityPauses int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.wakeTimeouts, w.inactivityPauses
}
