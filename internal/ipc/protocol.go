// Package ipc implements the newline-delimited JSON control protocol over
// the per-user unix socket. One running session owns the socket; the CLI
// control commands are thin clients of it.
package ipc

// Control verbs accepted by a running session.
const (
	CommandStatus = "status"
	CommandToggle = "toggle"
	CommandPause  = "pause"
	CommandResume = "resume"
	CommandStop   = "stop"
)

type Request struct {
	Command string `json:"command"`
}

type Response struct {
	OK           bool   `json:"ok"`
	State        string `json:"state,omitempty"`
	Mode         string `json:"mode,omitempty"`
	PausedReason string `json:"paused_reason,omitempty"`
	Message      string `json:"message,omitempty"`
	Error        string `json:"error,omitempty"`
}
