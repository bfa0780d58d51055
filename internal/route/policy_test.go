package route

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voicekey-io/voicekey/internal/command"
	"github.com/voicekey-io/voicekey/internal/fsm"
)

func TestEvaluate(t *testing.T) {
	text := command.Result{Kind: command.KindText, Literal: "hello"}
	cmd := command.Result{Kind: command.KindCommand, CommandID: "new_line"}
	pause := command.Result{Kind: command.KindSystem, CommandID: command.SystemPause}
	resume := command.Result{Kind: command.KindSystem, CommandID: command.SystemResume}
	stop := command.Result{Kind: command.KindSystem, CommandID: command.SystemStop}

	tests := []struct {
		name   string
		policy Policy
		state  fsm.State
		result command.Result
		want   Decision
	}{
		{"listening allows text", Policy{ResumePhrase: true}, fsm.StateListening, text, Decision{true, ReasonNonPaused}},
		{"listening allows command", Policy{ResumePhrase: true}, fsm.StateListening, cmd, Decision{true, ReasonNonPaused}},
		{"standby allows system", Policy{ResumePhrase: true}, fsm.StateStandby, pause, Decision{true, ReasonNonPaused}},
		{"paused blocks text", Policy{ResumePhrase: true}, fsm.StatePaused, text, Decision{false, ReasonPausedBlocks}},
		{"paused blocks command", Policy{ResumePhrase: true}, fsm.StatePaused, cmd, Decision{false, ReasonPausedBlocks}},
		{"paused allows stop", Policy{ResumePhrase: true}, fsm.StatePaused, stop, Decision{true, ReasonPausedAllowsStop}},
		{"paused allows resume when enabled", Policy{ResumePhrase: true}, fsm.StatePaused, resume, Decision{true, ReasonPausedAllowsResume}},
		{"paused blocks resume when disabled", Policy{ResumePhrase: false}, fsm.StatePaused, resume, Decision{false, ReasonPausedBlocksPhrase}},
		{"paused blocks redundant pause phrase", Policy{ResumePhrase: true}, fsm.StatePaused, pause, Decision{false, ReasonPausedBlocksPhrase}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.policy.Evaluate(tt.state, tt.result))
		})
	}
}
