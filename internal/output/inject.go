// Package output injects text and keystrokes into the focused window:
// literal text goes through the clipboard plus a paste chord, keys and
// chords go through wtype.
package output

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// InjectionCode classifies injection failures.
type InjectionCode string

const (
	// InjectionBlocked means the compositor or target rejected the input.
	InjectionBlocked InjectionCode = "blocked"
	// InjectionMissing means a required injection binary is not installed.
	InjectionMissing InjectionCode = "missing_binary"
)

// InjectionError is a failed keystroke or text injection.
type InjectionError struct {
	Code InjectionCode
	Err  error
}

func (e *InjectionError) Error() string {
	return fmt.Sprintf("keyboard injection %s: %v", e.Code, e.Err)
}

func (e *InjectionError) Unwrap() error {
	return e.Err
}

// comboModifiers are the modifier names wtype accepts in chords.
var comboModifiers = map[string]bool{
	"ctrl": true, "shift": true, "alt": true, "logo": true, "super": true,
}

// Injector implements keyboard injection on Wayland. Text goes clipboard
// first so large dictations paste atomically; key events use wtype's virtual
// keyboard protocol.
type Injector struct {
	clipboardArgv []string
	pasteShortcut string
	typeBinary    string
	logger        *slog.Logger
}

// NewInjector builds an injector. Empty arguments select the defaults:
// wl-copy for the clipboard, CTRL,V as the paste chord, wtype for keys.
func NewInjector(clipboardArgv []string, pasteShortcut string, logger *slog.Logger) *Injector {
	if len(clipboardArgv) == 0 {
		clipboardArgv = []string{"wl-copy"}
	}
	if strings.TrimSpace(pasteShortcut) == "" {
		pasteShortcut = "CTRL,V"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Injector{
		clipboardArgv: clipboardArgv,
		pasteShortcut: pasteShortcut,
		typeBinary:    "wtype",
		logger:        logger,
	}
}

// TypeText copies text to the clipboard and dispatches the paste chord at
// the focused window. A paste failure leaves the clipboard set and is
// reported as blocked so the caller can pause dictation.
func (i *Injector) TypeText(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	clipCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := runCommandWithInput(clipCtx, i.clipboardArgv, text); err != nil {
		return classifyInjection(fmt.Errorf("set clipboard: %w", err))
	}

	pasteCtx, pasteCancel := context.WithTimeout(ctx, 1200*time.Millisecond)
	defer pasteCancel()
	if err := dispatchPaste(pasteCtx, i.pasteShortcut); err != nil {
		i.logger.Error("paste dispatch failed; clipboard remains set", "error", err.Error())
		return classifyInjection(fmt.Errorf("dispatch paste: %w", err))
	}
	return nil
}

// PressKey taps one named key (XKB keysym).
func (i *Injector) PressKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("key name cannot be empty")
	}
	return i.runType(ctx, "-k", key)
}

// PressCombo holds the leading modifiers, taps the final key, and releases
// the modifiers in reverse order.
func (i *Injector) PressCombo(ctx context.Context, keys []string) error {
	args, err := comboArgs(keys)
	if err != nil {
		return err
	}
	return i.runType(ctx, args...)
}

// comboArgs translates a chord like [ctrl shift p] into wtype arguments.
func comboArgs(keys []string) ([]string, error) {
	if len(keys) == 0 {
		return nil, errors.New("key combo cannot be empty")
	}

	modifiers := make([]string, 0, len(keys)-1)
	for _, mod := range keys[:len(keys)-1] {
		mod = strings.ToLower(strings.TrimSpace(mod))
		if !comboModifiers[mod] {
			return nil, fmt.Errorf("unknown combo modifier %q", mod)
		}
		modifiers = append(modifiers, mod)
	}

	key := strings.TrimSpace(keys[len(keys)-1])
	if key == "" || comboModifiers[strings.ToLower(key)] {
		return nil, fmt.Errorf("combo must end with a non-modifier key, got %q", key)
	}

	args := make([]string, 0, 2*len(keys))
	for _, mod := range modifiers {
		args = append(args, "-M", mod)
	}
	args = append(args, "-k", key)
	for idx := len(modifiers) - 1; idx >= 0; idx-- {
		args = append(args, "-m", modifiers[idx])
	}
	return args, nil
}

func (i *Injector) runType(ctx context.Context, args ...string) error {
	runCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	cmd := exec.CommandContext(runCtx, i.typeBinary, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(out))
		if trimmed != "" {
			err = fmt.Errorf("%s %v failed: %w (%s)", i.typeBinary, args, err, trimmed)
		} else {
			err = fmt.Errorf("%s %v failed: %w", i.typeBinary, args, err)
		}
		return classifyInjection(err)
	}
	return nil
}

// classifyInjection wraps an execution failure with its injection code.
func classifyInjection(err error) error {
	if errors.Is(err, exec.ErrNotFound) {
		return &InjectionError{Code: InjectionMissing, Err: err}
	}
	return &InjectionError{Code: InjectionBlocked, Err: err}
}
