package resilience

import "github.com/voicekey-io/voicekey/internal/fsm"

// Fallback is the decision for a runtime error: whether to force paused and
// which transition event expresses it from the current state.
type Fallback struct {
	ForcePause bool
	Event      fsm.Event
	Reason     string
}

// DecideFallback maps a failed operation to its safety outcome.
// Safety-critical codes always pause. Retryable codes pause only once their
// retry schedule is exhausted; before that the runtime keeps its state and
// lets the retry loop run.
func DecideFallback(code Code, state fsm.State, retriesExhausted bool) Fallback {
	info := InfoFor(code)

	pause := info.SafetyCritical || (info.Retryable && retriesExhausted) || (!info.Retryable && !info.SafetyCritical && retriesExhausted)
	if !pause {
		return Fallback{}
	}

	switch state {
	case fsm.StateStandby, fsm.StateListening:
		return Fallback{ForcePause: true, Event: fsm.EventPauseRequested, Reason: string(code)}
	case fsm.StatePaused:
		// Already where the fallback wants us.
		return Fallback{Reason: string(code)}
	default:
		return Fallback{ForcePause: true, Event: fsm.EventPauseRequested, Reason: string(code)}
	}
}
