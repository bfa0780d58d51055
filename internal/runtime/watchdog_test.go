package runtime

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/voicekey-io/voicekey/internal/fsm"
	"github.com/voicekey-io/voicekey/internal/wake"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestWatchdog(clock *fakeClock) *Watchdog {
	window := wake.NewWindow(5*time.Second, clock.Now)
	return NewWatchdog(window, 30*time.Second, clock.Now)
}

func TestWatchdogWakeWindowExpires(t *testing.T) {
	clock := newFakeClock()
	wd := newTestWatchdog(clock)

	wd.ArmForMode(fsm.ModeWakeWord)
	require.Equal(t, TimeoutNone, wd.Poll())

	clock.Advance(5 * time.Second)
	require.Equal(t, TimeoutWakeWindow, wd.Poll())
	// Expiry disarms; the next poll is quiet.
	require.Equal(t, TimeoutNone, wd.Poll())

	wakeTimeouts, inactivityPauses := wd.Counters()
	require.Equal(t, int64(1), wakeTimeouts)
	require.Equal(t, int64(0), inactivityPauses)
}

func TestWatchdogActivityExtendsWakeWindow(t *testing.T) {
	clock := newFakeClock()
	wd := newTestWatchdog(clock)

	wd.ArmForMode(fsm.ModeWakeWord)
	clock.Advance(4 * time.Second)
	wd.OnActivity()
	clock.Advance(4 * time.Second)
	require.Equal(t, TimeoutNone, wd.Poll())

	clock.Advance(time.Second)
	require.Equal(t, TimeoutWakeWindow, wd.Poll())
}

func TestWatchdogInactivityTimer(t *testing.T) {
	for _, mode := range []fsm.Mode{fsm.ModeToggle, fsm.ModeContinuous} {
		t.Run(string(mode), func(t *testing.T) {
			clock := newFakeClock()
			wd := newTestWatchdog(clock)

			wd.ArmForMode(mode)
			clock.Advance(29 * time.Second)
			require.Equal(t, TimeoutNone, wd.Poll())

			wd.OnActivity()
			clock.Advance(29 * time.Second)
			require.Equal(t, TimeoutNone, wd.Poll())

			clock.Advance(time.Second)
			require.Equal(t, TimeoutInactivity, wd.Poll())
			require.Equal(t, TimeoutNone, wd.Poll())

			_, inactivityPauses := wd.Counters()
			require.Equal(t, int64(1), inactivityPauses)
		})
	}
}

func TestWatchdogRearmSwitchesTimerKind(t *testing.T) {
	clock := newFakeClock()
	wd := newTestWatchdog(clock)

	wd.ArmForMode(fsm.ModeWakeWord)
	wd.ArmForMode(fsm.ModeToggle)

	clock.Advance(10 * time.Second)
	// Wake window would have fired at 5s; only inactivity is armed now.
	require.Equal(t, TimeoutNone, wd.Poll())

	clock.Advance(20 * time.Second)
	require.Equal(t, TimeoutInactivity, wd.Poll())
}

func TestWatchdogDisarmStopsTimers(t *testing.T) {
	clock := newFakeClock()
	wd := newTestWatchdog(clock)

	wd.ArmForMode(fsm.ModeToggle)
	wd.Disarm()
	clock.Advance(time.Hour)
	require.Equal(t, TimeoutNone, wd.Poll())
}

func TestWatchdogRetuneTimeouts(t *testing.T) {
	clock := newFakeClock()
	wd := newTestWatchdog(clock)

	wd.ArmForMode(fsm.ModeToggle)
	wd.SetInactivityTimeout(10 * time.Second)

	// The armed timer expires against the retuned duration.
	clock.Advance(11 * time.Second)
	require.Equal(t, TimeoutInactivity, wd.Poll())

	wd.SetWakeWindowTimeout(2 * time.Second)
	wd.ArmForMode(fsm.ModeWakeWord)
	clock.Advance(3 * time.Second)
	require.Equal(t, TimeoutWakeWindow, wd.Poll())
}
