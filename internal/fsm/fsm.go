package fsm

import (
	"errors"
	"fmt"
	"sync"
)

type State string

type Event string

type Mode string

const (
	StateInitializing State = "initializing"
	StateStandby      State = "standby"
	StateListening    State = "listening"
	StateProcessing   State = "processing"
	StatePaused       State = "paused"
	StateError        State = "error"
	StateShuttingDown State = "shutting_down"
)

const (
	ModeWakeWord   Mode = "wake_word"
	ModeToggle     Mode = "toggle"
	ModeContinuous Mode = "continuous"
)

const (
	EventInitialized       Event = "initialized"
	EventInitFailed        Event = "init_failed"
	EventWakeDetected      Event = "wake_detected"
	EventToggleOn          Event = "toggle_on"
	EventToggleOff         Event = "toggle_off"
	EventContinuousStart   Event = "continuous_start"
	EventSpeechReceived    Event = "speech_received"
	EventPartialHandled    Event = "partial_handled"
	EventFinalHandled      Event = "final_handled"
	EventWindowTimeout     Event = "window_timeout"
	EventInactivityTimeout Event = "inactivity_timeout"
	EventPauseRequested    Event = "pause_requested"
	EventResumeRequested   Event = "resume_requested"
	EventStopRequested     Event = "stop_requested"
	EventShutdownComplete  Event = "shutdown_complete"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrTerminated        = errors.New("state machine is terminated")
)

// stateTerminal is an internal marker; Apply reports Terminal instead of
// exposing it as a reachable state.
const stateTerminal State = "terminated"

type key struct {
	state State
	event Event
}

var commonTransitions = map[key]State{
	{StateInitializing, EventInitialized}:      StateStandby,
	{StateInitializing, EventInitFailed}:       StateError,
	{StateListening, EventSpeechReceived}:      StateProcessing,
	{StateProcessing, EventPartialHandled}:     StateListening,
	{StateProcessing, EventFinalHandled}:       StateListening,
	{StateStandby, EventPauseRequested}:        StatePaused,
	{StateListening, EventPauseRequested}:      StatePaused,
	{StatePaused, EventResumeRequested}:        StateStandby,
	{StateStandby, EventStopRequested}:         StateShuttingDown,
	{StateListening, EventStopRequested}:       StateShuttingDown,
	{StateProcessing, EventStopRequested}:      StateShuttingDown,
	{StatePaused, EventStopRequested}:          StateShuttingDown,
	{StateError, EventStopRequested}:           StateShuttingDown,
	{StateShuttingDown, EventShutdownComplete}: stateTerminal,
}

var modeTransitions = map[Mode]map[key]State{
	ModeWakeWord: {
		{StateStandby, EventWakeDetected}:    StateListening,
		{StateListening, EventWindowTimeout}: StateStandby,
	},
	ModeToggle: {
		{StateStandby, EventToggleOn}:            StateListening,
		{StateListening, EventToggleOff}:         StateStandby,
		{StateListening, EventInactivityTimeout}: StatePaused,
	},
	ModeContinuous: {
		{StateStandby, EventContinuousStart}:     StateListening,
		{StateListening, EventToggleOff}:         StateStandby,
		{StateListening, EventInactivityTimeout}: StatePaused,
	},
}

func ValidMode(mode Mode) bool {
	_, ok := modeTransitions[mode]
	return ok
}

func Transition(mode Mode, current State, event Event) (State, error) {
	perMode, ok := modeTransitions[mode]
	if !ok {
		return current, fmt.Errorf("unknown mode %q", mode)
	}

	if next, ok := perMode[key{current, event}]; ok {
		return next, nil
	}
	if next, ok := commonTransitions[key{current, event}]; ok {
		return next, nil
	}
	return current, invalidTransition(mode, current, event)
}

// Allowed reports whether the table accepts event in the given state without
// applying it. Callers use it to degrade redundant control requests to no-ops
// instead of contract violations.
func Allowed(mode Mode, current State, event Event) bool {
	_, err := Transition(mode, current, event)
	return err == nil
}

func invalidTransition(mode Mode, state State, event Event) error {
	return fmt.Errorf("%w: mode=%s %s --(%s)--> ?", ErrInvalidTransition, mode, state, event)
}

// Result is one applied transition.
type Result struct {
	From     State
	To       State
	Event    Event
	Terminal bool
}

// Machine owns the single current runtime state. All mutation funnels
// through Apply; reads are safe from any goroutine.
type Machine struct {
	mu         sync.Mutex
	mode       Mode
	state      State
	terminated bool
}

func NewMachine(mode Mode) (*Machine, error) {
	if !ValidMode(mode) {
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
	return &Machine{mode: mode, state: StateInitializing}, nil
}

func (m *Machine) Mode() Mode {
	return m.mode
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) Terminated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.terminated
}

func (m *Machine) Apply(event Event) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.terminated {
		return Result{}, ErrTerminated
	}

	next, err := Transition(m.mode, m.state, event)
	if err != nil {
		return Result{}, err
	}

	result := Result{From: m.state, To: next, Event: event}
	if next == stateTerminal {
		m.terminated = true
		result.To = StateShuttingDown
		result.Terminal = true
		return result, nil
	}

	m.state = next
	return result, nil
}
