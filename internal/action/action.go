// Package action maps matched command IDs onto concrete keyboard and window
// operations and dispatches them through the injection backends.
package action

import (
	"context"
	"fmt"

	"github.com/voicekey-io/voicekey/internal/command"
)

// Kind selects the execution path for a request.
type Kind string

const (
	KindTypeText Kind = "type_text"
	KindPressKey Kind = "press_key"
	KindCombo    Kind = "key_combo"
	KindWindow   Kind = "window"
)

// WindowOp names a window-management operation.
type WindowOp string

const (
	WindowMaximize WindowOp = "maximize"
	WindowMinimize WindowOp = "minimize"
	WindowClose    WindowOp = "close"
	WindowSwitch   WindowOp = "switch"
)

// Request is one dispatchable action.
type Request struct {
	CommandID string
	Kind      Kind
	Text      string
	Keys      []string
	Window    WindowOp
}

// Keyboard injects keystrokes into the focused window.
type Keyboard interface {
	TypeText(ctx context.Context, text string) error
	PressKey(ctx context.Context, key string) error
	PressCombo(ctx context.Context, keys []string) error
}

// Window drives compositor-level window operations.
type Window interface {
	Maximize(ctx context.Context) error
	Minimize(ctx context.Context) error
	CloseActive(ctx context.Context) error
	CycleNext(ctx context.Context) error
}

// builtinRequests maps builtin command IDs to their actions. Key names are
// XKB keysyms as understood by the injection backend.
var builtinRequests = map[string]Request{
	"new_line":  {Kind: KindPressKey, Keys: []string{"Return"}},
	"tab":       {Kind: KindPressKey, Keys: []string{"Tab"}},
	"space":     {Kind: KindPressKey, Keys: []string{"space"}},
	"backspace": {Kind: KindPressKey, Keys: []string{"BackSpace"}},
	"delete":    {Kind: KindPressKey, Keys: []string{"Delete"}},

	"left":   {Kind: KindPressKey, Keys: []string{"Left"}},
	"right":  {Kind: KindPressKey, Keys: []string{"Right"}},
	"up":     {Kind: KindPressKey, Keys: []string{"Up"}},
	"down":   {Kind: KindPressKey, Keys: []string{"Down"}},
	"escape": {Kind: KindPressKey, Keys: []string{"Escape"}},

	"control_a": {Kind: KindCombo, Keys: []string{"ctrl", "a"}},
	"control_c": {Kind: KindCombo, Keys: []string{"ctrl", "c"}},
	"control_l": {Kind: KindCombo, Keys: []string{"ctrl", "l"}},
	"control_v": {Kind: KindCombo, Keys: []string{"ctrl", "v"}},
	"control_x": {Kind: KindCombo, Keys: []string{"ctrl", "x"}},
	"control_z": {Kind: KindCombo, Keys: []string{"ctrl", "z"}},

	"scratch_that":   {Kind: KindCombo, Keys: []string{"ctrl", "z"}},
	"capital_hello":  {Kind: KindTypeText, Text: "Hello"},
	"all_caps_hello": {Kind: KindTypeText, Text: "HELLO"},

	"maximize_window": {Kind: KindWindow, Window: WindowMaximize},
	"minimize_window": {Kind: KindWindow, Window: WindowMinimize},
	"close_window":    {Kind: KindWindow, Window: WindowClose},
	"switch_window":   {Kind: KindWindow, Window: WindowSwitch},

	"copy_that":  {Kind: KindCombo, Keys: []string{"ctrl", "c"}},
	"paste_that": {Kind: KindCombo, Keys: []string{"ctrl", "v"}},
	"cut_that":   {Kind: KindCombo, Keys: []string{"ctrl", "x"}},
}

// TypeTextRequest builds a literal dictation request.
func TypeTextRequest(text string) Request {
	return Request{CommandID: "dictation", Kind: KindTypeText, Text: text}
}

// ForCommand resolves a command ID to its request: builtins first, then the
// provided custom command set.
func ForCommand(id string, customs map[string]command.Custom) (Request, error) {
	if req, ok := builtinRequests[id]; ok {
		req.CommandID = id
		return req, nil
	}
	if custom, ok := customs[id]; ok {
		switch custom.Action {
		case command.ActionKeyCombo:
			return Request{CommandID: id, Kind: KindCombo, Keys: custom.Keys}, nil
		case command.ActionText:
			return Request{CommandID: id, Kind: KindTypeText, Text: custom.Text}, nil
		}
	}
	return Request{}, fmt.Errorf("no action bound to command %q", id)
}

// Router executes requests against the configured backends.
type Router struct {
	keyboard Keyboard
	window   Window
}

func NewRouter(keyboard Keyboard, window Window) *Router {
	return &Router{keyboard: keyboard, window: window}
}

// Dispatch executes one request.
func (r *Router) Dispatch(ctx context.Context, req Request) error {
	switch req.Kind {
	case KindTypeText:
		return r.keyboard.TypeText(ctx, req.Text)
	case KindPressKey:
		if len(req.Keys) != 1 {
			return fmt.Errorf("press_key action for %q needs exactly one key", req.CommandID)
		}
		return r.keyboard.PressKey(ctx, req.Keys[0])
	case KindCombo:
		return r.keyboard.PressCombo(ctx, req.Keys)
	case KindWindow:
		return r.dispatchWindow(ctx, req)
	default:
		return fmt.Errorf("unknown action kind %q for command %q", req.Kind, req.CommandID)
	}
}

func (r *Router) dispatchWindow(ctx context.Context, req Request) error {
	if r.window == nil {
		return fmt.Errorf("window action %q dispatched without a window backend", req.CommandID)
	}
	switch req.Window {
	case WindowMaximize:
		return r.window.Maximize(ctx)
	case WindowMinimize:
		return r.window.Minimize(ctx)
	case WindowClose:
		return r.window.CloseActive(ctx)
	case WindowSwitch:
		return r.window.CycleNext(ctx)
	default:
		return fmt.Errorf("unknown window operation %q for command %q", req.Window, req.CommandID)
	}
}
