package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/voicekey-io/voicekey/internal/fsm"
)

func TestPolicyNextDelay(t *testing.T) {
	policy := MicReconnect()

	tests := []struct {
		failures int
		delay    time.Duration
		ok       bool
	}{
		{0, time.Second, true},
		{1, 2 * time.Second, true},
		{2, 4 * time.Second, true},
		{3, 0, false},
		{10, 0, false},
		{-1, 0, false},
	}

	for _, tt := range tests {
		delay, ok := policy.NextDelay(tt.failures)
		require.Equal(t, tt.ok, ok, "failures=%d", tt.failures)
		require.Equal(t, tt.delay, delay, "failures=%d", tt.failures)
	}
}

func TestPolicyNextDelayReusesFinalBackoff(t *testing.T) {
	policy := Policy{MaxAttempts: 5, Backoff: []time.Duration{time.Second, 2 * time.Second}}

	delay, ok := policy.NextDelay(4)
	require.True(t, ok)
	require.Equal(t, 2*time.Second, delay)
}

func TestPolicyDo(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		policy := Policy{MaxAttempts: 3, Backoff: []time.Duration{time.Millisecond}}
		calls := 0
		err := policy.Do(context.Background(), func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, 3, calls)
	})

	t.Run("returns last error when exhausted", func(t *testing.T) {
		policy := Policy{MaxAttempts: 2, Backoff: []time.Duration{time.Millisecond}}
		sentinel := errors.New("still broken")
		calls := 0
		err := policy.Do(context.Background(), func(context.Context) error {
			calls++
			return sentinel
		})
		require.ErrorIs(t, err, sentinel)
		require.Equal(t, 3, calls, "initial attempt plus two retries")
	})

	t.Run("honors cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		policy := Policy{MaxAttempts: 3, Backoff: []time.Duration{time.Hour}}
		err := policy.Do(ctx, func(context.Context) error { return errors.New("nope") })
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestInfoFor(t *testing.T) {
	require.True(t, InfoFor(CodeNoMicrophone).SafetyCritical)
	require.True(t, InfoFor(CodeKeyboardBlocked).SafetyCritical)
	require.True(t, InfoFor(CodeModelChecksumFailed).SafetyCritical)
	require.True(t, InfoFor(CodeMicrophoneDisconnected).Retryable)
	require.False(t, InfoFor(CodeMicrophoneDisconnected).SafetyCritical)

	unknown := InfoFor(Code("mystery"))
	require.Equal(t, Code("mystery"), unknown.Code)
	require.NotEmpty(t, unknown.Remediation)
}

func TestRuntimeError(t *testing.T) {
	cause := errors.New("device vanished")
	err := NewError(CodeMicrophoneDisconnected, cause)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "microphone_disconnected")
	require.Contains(t, err.Error(), "device vanished")
}

func TestDecideFallback(t *testing.T) {
	tests := []struct {
		name      string
		code      Code
		state     fsm.State
		exhausted bool
		want      Fallback
	}{
		{
			name:  "safety critical pauses immediately from standby",
			code:  CodeNoMicrophone,
			state: fsm.StateStandby,
			want:  Fallback{ForcePause: true, Event: fsm.EventPauseRequested, Reason: "no_microphone"},
		},
		{
			name:  "safety critical pauses from listening",
			code:  CodeKeyboardBlocked,
			state: fsm.StateListening,
			want:  Fallback{ForcePause: true, Event: fsm.EventPauseRequested, Reason: "keyboard_blocked"},
		},
		{
			name:  "retryable code does not pause before exhaustion",
			code:  CodeMicrophoneDisconnected,
			state: fsm.StateListening,
			want:  Fallback{},
		},
		{
			name:      "retryable code pauses after exhaustion",
			code:      CodeMicrophoneDisconnected,
			state:     fsm.StateListening,
			exhausted: true,
			want:      Fallback{ForcePause: true, Event: fsm.EventPauseRequested, Reason: "microphone_disconnected"},
		},
		{
			name:  "already paused records reason without event",
			code:  CodeModelChecksumFailed,
			state: fsm.StatePaused,
			want:  Fallback{Reason: "model_checksum_failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, DecideFallback(tt.code, tt.state, tt.exhausted))
		})
	}
}
