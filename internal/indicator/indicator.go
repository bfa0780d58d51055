// Package indicator surfaces runtime state to the user: compositor or
// desktop notifications plus short audio cues.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/voicekey-io/voicekey/internal/hypr"
)

// Config controls indicator behavior. Backend selects "hypr" (default) or
// "desktop" notifications.
type Config struct {
	Enable         bool
	Backend        string
	DesktopAppName string
	ErrorTimeoutMS int

	SoundEnable      bool
	SoundListenFile  string
	SoundStandbyFile string
	SoundPauseFile   string
	SoundErrorFile   string
}

// Controller is the runtime-facing indicator contract.
type Controller interface {
	ShowListening(context.Context)
	ShowStandby(context.Context)
	ShowPaused(ctx context.Context, reason string)
	ShowError(ctx context.Context, text string)
	Hide(context.Context)
	FocusedMonitor() string
}

// HyprNotify is the concrete indicator used by running sessions. It routes
// notifications via Hyprland or desktop DBus based on the configured
// backend.
type HyprNotify struct {
	cfg      Config
	logger   *slog.Logger
	messages messages

	mu                    sync.Mutex
	focusedMonitor        string
	desktopNotificationID uint32
	soundMu               sync.Mutex
}

// NewHyprNotify creates an indicator controller from config.
func NewHyprNotify(cfg Config, logger *slog.Logger) *HyprNotify {
	return &HyprNotify{
		cfg:      cfg,
		logger:   logger,
		messages: indicatorMessagesFromEnv(),
	}
}

// ShowListening signals that speech is being captured and typed.
func (h *HyprNotify) ShowListening(ctx context.Context) {
	h.playCue(cueListen)
	if !h.cfg.Enable {
		return
	}
	h.ensureFocusedMonitor(ctx)
	h.run(ctx, func(ctx context.Context) error {
		return h.notify(ctx, hypr.IconInfo, 300000, "rgb(89b4fa)", h.messages.listening)
	})
}

// ShowStandby clears the listening indicator when the session goes idle.
func (h *HyprNotify) ShowStandby(ctx context.Context) {
	h.playCue(cueStandby)
	if !h.cfg.Enable {
		return
	}
	h.run(ctx, h.dismiss)
}

// ShowPaused signals the paused gate, with the pause reason when known.
func (h *HyprNotify) ShowPaused(ctx context.Context, reason string) {
	h.playCue(cuePause)
	if !h.cfg.Enable {
		return
	}
	text := h.messages.paused
	if reason != "" {
		text += " (" + reason + ")"
	}
	h.run(ctx, func(ctx context.Context) error {
		return h.notify(ctx, hypr.IconWarning, 300000, "rgb(f9e2af)", text)
	})
}

// ShowError displays an error-state indicator message.
func (h *HyprNotify) ShowError(ctx context.Context, text string) {
	h.playCue(cueError)
	if !h.cfg.Enable {
		return
	}
	if text == "" {
		text = h.messages.errorText
	}
	timeout := h.cfg.ErrorTimeoutMS
	if timeout <= 0 {
		timeout = 1200
	}
	h.run(ctx, func(ctx context.Context) error {
		return h.notify(ctx, hypr.IconError, timeout, "rgb(f38ba8)", text)
	})
}

// Hide dismisses the active indicator surface without a cue.
func (h *HyprNotify) Hide(ctx context.Context) {
	if !h.cfg.Enable {
		return
	}
	h.run(ctx, h.dismiss)
}

// FocusedMonitor returns the monitor captured when listening began.
func (h *HyprNotify) FocusedMonitor() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.focusedMonitor
}

// ensureFocusedMonitor resolves and caches the focused monitor once per
// session.
func (h *HyprNotify) ensureFocusedMonitor(ctx context.Context) {
	h.mu.Lock()
	alreadySet := h.focusedMonitor != ""
	h.mu.Unlock()
	if alreadySet {
		return
	}

	monitor, err := hypr.QueryFocusedMonitor(ctx)
	if err != nil {
		h.log("indicator focused monitor query failed", err)
		return
	}

	h.mu.Lock()
	h.focusedMonitor = monitor
	h.mu.Unlock()
}

// notify dispatches indicator output through the configured backend.
func (h *HyprNotify) notify(ctx context.Context, icon hypr.Icon, timeoutMS int, color string, text string) error {
	if strings.EqualFold(strings.TrimSpace(h.cfg.Backend), "desktop") {
		return h.notifyDesktop(ctx, timeoutMS, text)
	}
	return hypr.Notify(ctx, icon, timeoutMS, color, text)
}

// dismiss removes indicator output from the configured backend.
func (h *HyprNotify) dismiss(ctx context.Context) error {
	if strings.EqualFold(strings.TrimSpace(h.cfg.Backend), "desktop") {
		return h.dismissDesktop(ctx)
	}
	return hypr.DismissNotify(ctx)
}

// notifyDesktop sends a replaceable desktop notification and stores its ID.
func (h *HyprNotify) notifyDesktop(ctx context.Context, timeoutMS int, text string) error {
	h.mu.Lock()
	replaceID := h.desktopNotificationID
	h.mu.Unlock()

	appName := strings.TrimSpace(h.cfg.DesktopAppName)
	if appName == "" {
		appName = "voicekey"
	}

	id, err := desktopNotify(ctx, appName, replaceID, text, timeoutMS)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.desktopNotificationID = id
	h.mu.Unlock()
	return nil
}

// dismissDesktop closes the current desktop notification ID when present.
func (h *HyprNotify) dismissDesktop(ctx context.Context) error {
	h.mu.Lock()
	id := h.desktopNotificationID
	h.desktopNotificationID = 0
	h.mu.Unlock()

	if id == 0 {
		return nil
	}
	return desktopDismiss(ctx, id)
}

// run executes an indicator operation with a bounded timeout.
func (h *HyprNotify) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	if err := fn(runCtx); err != nil {
		h.log("indicator dispatch failed", err)
	}
}

// playCue serializes cue playback and emits audio asynchronously.
func (h *HyprNotify) playCue(kind cueKind) {
	if !h.cfg.SoundEnable {
		return
	}
	go func() {
		h.soundMu.Lock()
		defer h.soundMu.Unlock()
		if err := emitCue(kind, h.cfg); err != nil {
			h.log("indicator audio cue failed", err)
		}
	}()
}

// log emits debug-only indicator failures to the runtime logger.
func (h *HyprNotify) log(message string, err error) {
	if h.logger == nil || err == nil {
		return
	}
	h.logger.Debug(message, "error", err.Error())
}
