package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/voicekey-io/voicekey/internal/action"
	"github.com/voicekey-io/voicekey/internal/asr"
	"github.com/voicekey-io/voicekey/internal/command"
	"github.com/voicekey-io/voicekey/internal/fsm"
	"github.com/voicekey-io/voicekey/internal/resilience"
	"github.com/voicekey-io/voicekey/internal/route"
	"github.com/voicekey-io/voicekey/internal/wake"
)

type harness struct {
	clock *fakeClock
	coord *Coordinator
	exec  *recordingExec
}

func newHarness(t *testing.T, mode fsm.Mode, mutate func(*Config)) *harness {
	t.Helper()

	registry, err := command.NewRegistry(command.Catalog(), command.GateWindowCommands)
	require.NoError(t, err)

	clock := newFakeClock()
	window := wake.NewWindow(5*time.Second, clock.Now)

	exec := &recordingExec{}
	dispatcher := NewDispatcher(exec.run, nil, nil, nil)
	go dispatcher.Run(context.Background())
	t.Cleanup(func() { dispatcher.Shutdown(time.Second) })

	cfg := Config{
		Mode:           mode,
		Parser:         command.NewParser(registry),
		Policy:         route.Policy{ResumePhrase: true},
		Filter:         asr.NewConfidenceFilter(0.5, nil),
		WakeDetector:   wake.NewDetector("hey voice key", wake.DefaultSensitivity),
		Watchdog:       NewWatchdog(window, 30*time.Second, clock.Now),
		Dispatcher:     dispatcher,
		LogTranscripts: true,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	coord, err := NewCoordinator(cfg)
	require.NoError(t, err)
	_, err = coord.Start()
	require.NoError(t, err)

	return &harness{clock: clock, coord: coord, exec: exec}
}

func final(text string) asr.Transcript {
	return asr.Transcript{Text: text, Confidence: 0.9, Final: true}
}

func (h *harness) waitDispatched(t *testing.T, n int) []action.Request {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(h.exec.requests()) >= n
	}, time.Second, 5*time.Millisecond)
	return h.exec.requests()
}

func TestCoordinatorWakeWordFlow(t *testing.T) {
	h := newHarness(t, fsm.ModeWakeWord, nil)
	ctx := context.Background()

	require.Equal(t, fsm.StateStandby, h.coord.State())

	// Unrelated standby speech is never typed.
	u := h.coord.OnTranscript(ctx, final("hello there"))
	require.Equal(t, ReasonAwaitingWake, u.RouteReason)
	require.False(t, u.Dispatched)
	require.Equal(t, fsm.StateStandby, u.State)

	// The wake utterance opens the window but is consumed, not typed.
	u = h.coord.OnTranscript(ctx, final("hey voice key"))
	require.True(t, u.WakeDetected)
	require.Equal(t, 1.0, u.WakeScore)
	require.False(t, u.Dispatched)
	require.Equal(t, fsm.StateListening, u.State)

	// A final while listening round-trips through processing and dispatches.
	u = h.coord.OnTranscript(ctx, final("hello world"))
	require.True(t, u.Dispatched)
	require.Equal(t, command.KindText, u.ParseKind)
	require.Equal(t, fsm.StateListening, u.State)
	require.Len(t, u.Transitions, 2)
	require.Equal(t, fsm.StateProcessing, u.Transitions[0].To)
	require.Equal(t, fsm.StateListening, u.Transitions[1].To)

	reqs := h.waitDispatched(t, 1)
	require.Equal(t, action.KindTypeText, reqs[0].Kind)
	require.Equal(t, "hello world", reqs[0].Text)

	// Silence past the window timeout drops back to standby.
	h.clock.Advance(6 * time.Second)
	u, fired := h.coord.PollTimers(ctx)
	require.True(t, fired)
	require.Equal(t, fsm.StateStandby, u.State)
}

func TestCoordinatorCommandDispatch(t *testing.T) {
	h := newHarness(t, fsm.ModeToggle, nil)
	ctx := context.Background()

	h.coord.Toggle()
	require.Equal(t, fsm.StateListening, h.coord.State())

	u := h.coord.OnTranscript(ctx, final("new line command"))
	require.True(t, u.Dispatched)
	require.Equal(t, command.KindCommand, u.ParseKind)
	require.Equal(t, "new_line", u.CommandID)

	// Without the suffix the same words are plain dictation.
	u = h.coord.OnTranscript(ctx, final("new line"))
	require.True(t, u.Dispatched)
	require.Equal(t, command.KindText, u.ParseKind)

	reqs := h.waitDispatched(t, 2)
	require.Equal(t, action.KindPressKey, reqs[0].Kind)
	require.Equal(t, []string{"Return"}, reqs[0].Keys)
	require.Equal(t, action.KindTypeText, reqs[1].Kind)
	require.Equal(t, "new line", reqs[1].Text)
}

func TestCoordinatorLowConfidenceFinalDropped(t *testing.T) {
	h := newHarness(t, fsm.ModeToggle, nil)
	h.coord.Toggle()

	u := h.coord.OnTranscript(context.Background(), asr.Transcript{Text: "garbled", Confidence: 0.2, Final: true})
	require.False(t, u.Dispatched)
	require.Equal(t, ReasonBelowConfidence, u.RouteReason)
	require.Equal(t, fsm.StateListening, u.State)
	require.Equal(t, int64(1), h.coord.Snapshot().DroppedFinals)
}

func TestCoordinatorPausedGate(t *testing.T) {
	h := newHarness(t, fsm.ModeToggle, nil)
	ctx := context.Background()
	h.coord.Toggle()

	u := h.coord.OnTranscript(ctx, final("pause voice key"))
	require.Equal(t, fsm.StatePaused, u.State)

	// Dictation and ordinary commands are blocked while paused.
	u = h.coord.OnTranscript(ctx, final("hello world"))
	require.False(t, u.RouteAllowed)
	require.Equal(t, route.ReasonPausedBlocks, u.RouteReason)
	require.False(t, u.Dispatched)

	u = h.coord.OnTranscript(ctx, final("new line command"))
	require.False(t, u.RouteAllowed)
	require.Equal(t, fsm.StatePaused, u.State)

	// The resume phrase leaves paused for standby, not listening.
	u = h.coord.OnTranscript(ctx, final("resume voice key"))
	require.Equal(t, route.ReasonPausedAllowsResume, u.RouteReason)
	require.Equal(t, fsm.StateStandby, u.State)

	require.Empty(t, h.exec.requests())
}

func TestCoordinatorPausedResumePhraseDisabled(t *testing.T) {
	h := newHarness(t, fsm.ModeToggle, func(cfg *Config) {
		cfg.Policy = route.Policy{ResumePhrase: false}
	})
	ctx := context.Background()
	h.coord.Toggle()
	h.coord.OnTranscript(ctx, final("pause voice key"))

	u := h.coord.OnTranscript(ctx, final("resume voice key"))
	require.False(t, u.RouteAllowed)
	require.Equal(t, route.ReasonPausedBlocksPhrase, u.RouteReason)
	require.Equal(t, fsm.StatePaused, u.State)

	// The stop phrase always passes the paused gate.
	u = h.coord.OnTranscript(ctx, final("voice key stop"))
	require.Equal(t, route.ReasonPausedAllowsStop, u.RouteReason)
	require.Equal(t, fsm.StateShuttingDown, u.State)
}

func TestCoordinatorRedundantControlIsNoOp(t *testing.T) {
	h := newHarness(t, fsm.ModeToggle, nil)

	u := h.coord.Resume()
	require.NotNil(t, u.Diagnostic)
	require.Equal(t, DiagRedundantControl, u.Diagnostic.Code)
	require.Empty(t, u.Transitions)
	require.Equal(t, fsm.StateStandby, u.State)

	h.coord.Pause()
	u = h.coord.Pause()
	require.NotNil(t, u.Diagnostic)
	require.Equal(t, fsm.StatePaused, u.State)
}

func TestCoordinatorToggleLifecycle(t *testing.T) {
	tests := []struct {
		mode      fsm.Mode
		onEngage  fsm.Event
		fromStart fsm.State
	}{
		{mode: fsm.ModeWakeWord, onEngage: fsm.EventWakeDetected, fromStart: fsm.StateStandby},
		{mode: fsm.ModeToggle, onEngage: fsm.EventToggleOn, fromStart: fsm.StateStandby},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			h := newHarness(t, tt.mode, nil)
			require.Equal(t, tt.fromStart, h.coord.State())

			u := h.coord.Toggle()
			require.Len(t, u.Transitions, 1)
			require.Equal(t, tt.onEngage, u.Transitions[0].Event)
			require.Equal(t, fsm.StateListening, u.State)

			u = h.coord.Toggle()
			require.Equal(t, fsm.StateStandby, u.State)
		})
	}
}

func TestCoordinatorContinuousStartsListening(t *testing.T) {
	h := newHarness(t, fsm.ModeContinuous, nil)
	require.Equal(t, fsm.StateListening, h.coord.State())
}

func TestCoordinatorInactivityAutoPause(t *testing.T) {
	h := newHarness(t, fsm.ModeToggle, nil)
	ctx := context.Background()
	h.coord.Toggle()

	// A partial refreshes the inactivity timer without dispatching.
	h.clock.Advance(20 * time.Second)
	u := h.coord.OnTranscript(ctx, asr.Transcript{Text: "still talk", Final: false})
	require.True(t, u.Partial)

	h.clock.Advance(20 * time.Second)
	_, fired := h.coord.PollTimers(ctx)
	require.False(t, fired)

	h.clock.Advance(10 * time.Second)
	u, fired = h.coord.PollTimers(ctx)
	require.True(t, fired)
	require.Equal(t, fsm.StatePaused, u.State)

	status := h.coord.Snapshot()
	require.Equal(t, "inactivity", status.PausedReason)
	require.Equal(t, int64(1), status.InactivityPauses)

	// Toggle resumes from the auto-pause.
	u = h.coord.Toggle()
	require.Equal(t, fsm.StateStandby, u.State)
	require.Empty(t, h.coord.Snapshot().PausedReason)
}

func TestCoordinatorRuntimeErrorFallback(t *testing.T) {
	t.Run("retryable waits for exhaustion", func(t *testing.T) {
		h := newHarness(t, fsm.ModeToggle, nil)
		h.coord.Toggle()

		u := h.coord.OnRuntimeError(resilience.CodeMicrophoneDisconnected, false)
		require.Equal(t, fsm.StateListening, u.State)
		require.NotNil(t, u.Diagnostic)
		require.Equal(t, "microphone_disconnected", u.Diagnostic.Code)
		require.NotEmpty(t, u.Diagnostic.Remediation)

		u = h.coord.OnRuntimeError(resilience.CodeMicrophoneDisconnected, true)
		require.Equal(t, fsm.StatePaused, u.State)
		require.Equal(t, "microphone_disconnected", h.coord.Snapshot().PausedReason)
	})

	t.Run("safety critical pauses immediately", func(t *testing.T) {
		h := newHarness(t, fsm.ModeToggle, nil)
		h.coord.Toggle()

		u := h.coord.OnRuntimeError(resilience.CodeKeyboardBlocked, false)
		require.Equal(t, fsm.StatePaused, u.State)
		require.Equal(t, "keyboard_blocked", h.coord.Snapshot().PausedReason)
	})
}

func TestCoordinatorUnboundCustomCommand(t *testing.T) {
	h := newHarness(t, fsm.ModeToggle, func(cfg *Config) {
		registry, err := command.NewRegistry(append(command.Catalog(), command.Definition{
			ID:      "custom_sig",
			Phrase:  "insert signature",
			Channel: command.ChannelCommand,
		}))
		require.NoError(t, err)
		cfg.Parser = command.NewParser(registry)
		// Customs deliberately left empty: the phrase matches but has no
		// bound action.
	})
	h.coord.Toggle()

	u := h.coord.OnTranscript(context.Background(), final("insert signature command"))
	require.False(t, u.Dispatched)
	require.NotNil(t, u.Diagnostic)
	require.Equal(t, DiagUnboundCommand, u.Diagnostic.Code)
	// The machine still returns to listening.
	require.Equal(t, fsm.StateListening, u.State)
}

func TestCoordinatorUpdatesStream(t *testing.T) {
	registry, err := command.NewRegistry(command.Catalog())
	require.NoError(t, err)

	clock := newFakeClock()
	exec := &recordingExec{}
	dispatcher := NewDispatcher(exec.run, nil, nil, nil)
	go dispatcher.Run(context.Background())
	t.Cleanup(func() { dispatcher.Shutdown(time.Second) })

	coord, err := NewCoordinator(Config{
		Mode:       fsm.ModeToggle,
		Parser:     command.NewParser(registry),
		Filter:     asr.NewConfidenceFilter(0.5, nil),
		Watchdog:   NewWatchdog(wake.NewWindow(5*time.Second, clock.Now), 30*time.Second, clock.Now),
		Dispatcher: dispatcher,
	})
	require.NoError(t, err)

	updates := coord.Updates()
	_, err = coord.Start()
	require.NoError(t, err)
	coord.Toggle()

	first := <-updates
	require.Equal(t, uint64(1), first.Seq)
	require.Equal(t, fsm.StateStandby, first.State)

	second := <-updates
	require.Equal(t, uint64(2), second.Seq)
	require.Equal(t, fsm.StateListening, second.State)
}

func TestCoordinatorReconfigureConfidenceThreshold(t *testing.T) {
	h := newHarness(t, fsm.ModeToggle, nil)
	ctx := context.Background()
	h.coord.Toggle()

	// Accepted at the startup threshold of 0.5.
	u := h.coord.OnTranscript(ctx, asr.Transcript{Text: "first take", Confidence: 0.7, Final: true})
	require.True(t, u.Dispatched)

	threshold := 0.9
	h.coord.Reconfigure(HotSettings{ConfidenceThreshold: &threshold})

	// The same confidence is now below the reloaded cutoff.
	u = h.coord.OnTranscript(ctx, asr.Transcript{Text: "second take", Confidence: 0.7, Final: true})
	require.False(t, u.Dispatched)
	require.Equal(t, ReasonBelowConfidence, u.RouteReason)
	require.Equal(t, int64(1), h.coord.Snapshot().DroppedFinals)
}

func TestCoordinatorReconfigureResumePhrasePolicy(t *testing.T) {
	h := newHarness(t, fsm.ModeToggle, nil)
	ctx := context.Background()
	h.coord.Toggle()
	h.coord.OnTranscript(ctx, final("pause voice key"))

	h.coord.Reconfigure(HotSettings{Policy: &route.Policy{ResumePhrase: false}})

	u := h.coord.OnTranscript(ctx, final("resume voice key"))
	require.False(t, u.RouteAllowed)
	require.Equal(t, route.ReasonPausedBlocksPhrase, u.RouteReason)
	require.Equal(t, fsm.StatePaused, u.State)
}

func TestCoordinatorReconfigureInactivityTimeout(t *testing.T) {
	h := newHarness(t, fsm.ModeToggle, nil)
	ctx := context.Background()
	h.coord.Toggle()

	shorter := 10 * time.Second
	h.coord.Reconfigure(HotSettings{InactivityTimeout: &shorter})

	// The startup timeout was 30s; the armed timer expires against the new
	// value without re-arming.
	h.clock.Advance(15 * time.Second)
	u, fired := h.coord.PollTimers(ctx)
	require.True(t, fired)
	require.Equal(t, fsm.StatePaused, u.State)
}

func TestCoordinatorReconfigureParser(t *testing.T) {
	h := newHarness(t, fsm.ModeToggle, nil)
	ctx := context.Background()
	h.coord.Toggle()

	registry, err := command.NewRegistry(command.Catalog())
	require.NoError(t, err)
	h.coord.Reconfigure(HotSettings{Parser: command.NewParser(registry, command.WithSuffix("execute"))})

	// The old suffix is now plain dictation; the new one marks commands.
	u := h.coord.OnTranscript(ctx, final("new line command"))
	require.Equal(t, command.KindText, u.ParseKind)

	u = h.coord.OnTranscript(ctx, final("new line execute"))
	require.Equal(t, command.KindCommand, u.ParseKind)
	require.Equal(t, "new_line", u.CommandID)
}

func TestCoordinatorShutdownDrains(t *testing.T) {
	h := newHarness(t, fsm.ModeToggle, nil)
	ctx := context.Background()
	h.coord.Toggle()

	h.coord.OnTranscript(ctx, final("queued before stop"))

	drain, u := h.coord.Shutdown(time.Second)
	require.False(t, drain.TimedOut)
	require.Equal(t, int64(1), drain.Drained)

	require.NotEmpty(t, u.Transitions)
	last := u.Transitions[len(u.Transitions)-1]
	require.Equal(t, fsm.EventShutdownComplete, last.Event)
	require.True(t, last.Terminal)
}
