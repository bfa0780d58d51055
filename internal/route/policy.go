// Package route decides whether a parsed utterance may dispatch in the
// current runtime state. Paused is a hard gate: nothing but the configured
// control phrases passes through it.
package route

import (
	"github.com/voicekey-io/voicekey/internal/command"
	"github.com/voicekey-io/voicekey/internal/fsm"
)

// Reasons recorded on routing decisions. These are stable strings that show
// up in logs and status output.
const (
	ReasonNonPaused          = "non_paused_state"
	ReasonPausedBlocks       = "paused_blocks_dictation_and_non_system_commands"
	ReasonPausedAllowsStop   = "paused_allows_stop_phrase"
	ReasonPausedAllowsResume = "paused_allows_resume_phrase"
	ReasonPausedBlocksPhrase = "paused_blocks_non_control_system_phrase"
)

// Decision is the outcome of one routing check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Policy gates dispatch by state. ResumePhrase mirrors the
// modes.paused_resume_phrase setting: when off, even "resume voice key" is
// blocked while paused and only the stop phrase or hotkey can leave PAUSED.
type Policy struct {
	ResumePhrase bool
}

// Evaluate applies the paused gate to a parse result.
func (p Policy) Evaluate(state fsm.State, result command.Result) Decision {
	if state != fsm.StatePaused {
		return Decision{Allowed: true, Reason: ReasonNonPaused}
	}

	if result.Kind != command.KindSystem {
		return Decision{Allowed: false, Reason: ReasonPausedBlocks}
	}

	switch result.CommandID {
	case command.SystemStop:
		return Decision{Allowed: true, Reason: ReasonPausedAllowsStop}
	case command.SystemResume:
		if p.ResumePhrase {
			return Decision{Allowed: true, Reason: ReasonPausedAllowsResume}
		}
		return Decision{Allowed: false, Reason: ReasonPausedBlocksPhrase}
	default:
		return Decision{Allowed: false, Reason: ReasonPausedBlocksPhrase}
	}
}
