package resilience

import "fmt"

// Code identifies a runtime failure class.
type Code string

const (
	CodeNoMicrophone           Code = "no_microphone"
	CodeMicrophoneDisconnected Code = "microphone_disconnected"
	CodeHotkeyConflict         Code = "hotkey_conflict"
	CodeModelChecksumFailed    Code = "model_checksum_failed"
	CodeKeyboardBlocked        Code = "keyboard_blocked"
	CodeRecognizerUnavailable  Code = "recognizer_unavailable"
)

// Info describes one failure class: how it is presented and whether the
// runtime may retry past it.
type Info struct {
	Code        Code
	Title       string
	Remediation string
	Retryable   bool
	// SafetyCritical failures always force paused; retrying is not enough
	// to trust the input path again.
	SafetyCritical bool
}

var infos = map[Code]Info{
	CodeNoMicrophone: {
		Code:           CodeNoMicrophone,
		Title:          "No microphone available",
		Remediation:    "Connect a microphone or select another device with `voicekey devices`, then resume.",
		Retryable:      false,
		SafetyCritical: true,
	},
	CodeMicrophoneDisconnected: {
		Code:        CodeMicrophoneDisconnected,
		Title:       "Microphone disconnected",
		Remediation: "Reconnect the device; capture retries automatically before pausing.",
		Retryable:   true,
	},
	CodeHotkeyConflict: {
		Code:        CodeHotkeyConflict,
		Title:       "Hotkey already in use",
		Remediation: "Change the conflicting chord under hotkeys in config.jsonc.",
		Retryable:   false,
	},
	CodeModelChecksumFailed: {
		Code:           CodeModelChecksumFailed,
		Title:          "Recognizer model failed verification",
		Remediation:    "Re-download the model; refusing to transcribe with a corrupt model.",
		Retryable:      false,
		SafetyCritical: true,
	},
	CodeKeyboardBlocked: {
		Code:           CodeKeyboardBlocked,
		Title:          "Keyboard injection blocked",
		Remediation:    "Check that wtype and wl-copy are installed and the compositor allows virtual input.",
		Retryable:      false,
		SafetyCritical: true,
	},
	CodeRecognizerUnavailable: {
		Code:        CodeRecognizerUnavailable,
		Title:       "Speech recognizer unreachable",
		Remediation: "Check the recognizer endpoint in config.jsonc and that the service is running.",
		Retryable:   true,
	},
}

// InfoFor returns the taxonomy entry for a code. Unknown codes get a
// non-retryable generic entry rather than a panic.
func InfoFor(code Code) Info {
	if info, ok := infos[code]; ok {
		return info
	}
	return Info{
		Code:        code,
		Title:       fmt.Sprintf("Runtime error (%s)", code),
		Remediation: "See the log for details.",
	}
}

// RuntimeError pairs a taxonomy code with the underlying cause.
type RuntimeError struct {
	Code Code
	Err  error
}

func (e *RuntimeError) Error() string {
	info := InfoFor(e.Code)
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, info.Title)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, info.Title, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewError wraps err with a taxonomy code.
func NewError(code Code, err error) *RuntimeError {
	return &RuntimeError{Code: code, Err: err}
}
