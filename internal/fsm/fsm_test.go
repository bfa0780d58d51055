package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionWakeWordCycle(t *testing.T) {
	s := StateInitializing

	next, err := Transition(ModeWakeWord, s, EventInitialized)
	require.NoError(t, err)
	require.Equal(t, StateStandby, next)

	next, err = Transition(ModeWakeWord, next, EventWakeDetected)
	require.NoError(t, err)
	require.Equal(t, StateListening, next)

	next, err = Transition(ModeWakeWord, next, EventSpeechReceived)
	require.NoError(t, err)
	require.Equal(t, StateProcessing, next)

	next, err = Transition(ModeWakeWord, next, EventFinalHandled)
	require.NoError(t, err)
	require.Equal(t, StateListening, next)

	next, err = Transition(ModeWakeWord, next, EventWindowTimeout)
	require.NoError(t, err)
	require.Equal(t, StateStandby, next)
}

func TestTransitionModeSpecificEntries(t *testing.T) {
	tests := []struct {
		name    string
		mode    Mode
		state   State
		event   Event
		want    State
		wantErr bool
	}{
		{name: "wake word wake", mode: ModeWakeWord, state: StateStandby, event: EventWakeDetected, want: StateListening},
		{name: "wake word window timeout", mode: ModeWakeWord, state: StateListening, event: EventWindowTimeout, want: StateStandby},
		{name: "wake word rejects toggle", mode: ModeWakeWord, state: StateStandby, event: EventToggleOn, want: StateStandby, wantErr: true},
		{name: "wake word rejects inactivity", mode: ModeWakeWord, state: StateListening, event: EventInactivityTimeout, want: StateListening, wantErr: true},
		{name: "toggle on", mode: ModeToggle, state: StateStandby, event: EventToggleOn, want: StateListening},
		{name: "toggle off", mode: ModeToggle, state: StateListening, event: EventToggleOff, want: StateStandby},
		{name: "toggle inactivity pause", mode: ModeToggle, state: StateListening, event: EventInactivityTimeout, want: StatePaused},
		{name: "toggle rejects wake", mode: ModeToggle, state: StateStandby, event: EventWakeDetected, want: StateStandby, wantErr: true},
		{name: "toggle rejects window timeout", mode: ModeToggle, state: StateListening, event: EventWindowTimeout, want: StateListening, wantErr: true},
		{name: "continuous start", mode: ModeContinuous, state: StateStandby, event: EventContinuousStart, want: StateListening},
		{name: "continuous off", mode: ModeContinuous, state: StateListening, event: EventToggleOff, want: StateStandby},
		{name: "continuous inactivity pause", mode: ModeContinuous, state: StateListening, event: EventInactivityTimeout, want: StatePaused},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.mode, tc.state, tc.event)
			require.Equal(t, tc.want, next)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidTransition)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTransitionPauseFromStandbyAndListening(t *testing.T) {
	for _, mode := range []Mode{ModeWakeWord, ModeToggle, ModeContinuous} {
		for _, state := range []State{StateStandby, StateListening} {
			next, err := Transition(mode, state, EventPauseRequested)
			require.NoError(t, err)
			require.Equal(t, StatePaused, next)
		}
	}
}

func TestTransitionResumeOnlyFromPaused(t *testing.T) {
	next, err := Transition(ModeWakeWord, StatePaused, EventResumeRequested)
	require.NoError(t, err)
	require.Equal(t, StateStandby, next)

	for _, state := range []State{StateStandby, StateListening, StateProcessing, StateError} {
		_, err := Transition(ModeWakeWord, state, EventResumeRequested)
		require.ErrorIs(t, err, ErrInvalidTransition)
	}
}

func TestTransitionStopFromEveryNonTerminalState(t *testing.T) {
	states := []State{StateStandby, StateListening, StateProcessing, StatePaused, StateError}
	for _, state := range states {
		next, err := Transition(ModeToggle, state, EventStopRequested)
		require.NoError(t, err)
		require.Equal(t, StateShuttingDown, next)
	}
}

func TestTransitionUnknownMode(t *testing.T) {
	next, err := Transition(Mode("mystery"), StateStandby, EventPauseRequested)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown mode")
	require.Equal(t, StateStandby, next)
}

func TestAllowed(t *testing.T) {
	require.True(t, Allowed(ModeWakeWord, StatePaused, EventResumeRequested))
	require.False(t, Allowed(ModeWakeWord, StateStandby, EventResumeRequested))
	require.False(t, Allowed(ModeWakeWord, StatePaused, EventPauseRequested))
}

func TestMachineLifecycle(t *testing.T) {
	m, err := NewMachine(ModeWakeWord)
	require.NoError(t, err)
	require.Equal(t, ModeWakeWord, m.Mode())
	require.Equal(t, StateInitializing, m.State())

	result, err := m.Apply(EventInitialized)
	require.NoError(t, err)
	require.Equal(t, StateInitializing, result.From)
	require.Equal(t, StateStandby, result.To)
	require.False(t, result.Terminal)
	require.Equal(t, StateStandby, m.State())

	_, err = m.Apply(EventToggleOn)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, StateStandby, m.State())

	_, err = m.Apply(EventStopRequested)
	require.NoError(t, err)
	require.Equal(t, StateShuttingDown, m.State())

	result, err = m.Apply(EventShutdownComplete)
	require.NoError(t, err)
	require.True(t, result.Terminal)
	require.True(t, m.Terminated())

	_, err = m.Apply(EventStopRequested)
	require.ErrorIs(t, err, ErrTerminated)
}

func TestNewMachineRejectsUnknownMode(t *testing.T) {
	_, err := NewMachine(Mode("hyperdrive"))
	require.Error(t, err)
}
