// Package hypr shells out to hyprctl for window queries, window management,
// and compositor notifications.
package hypr

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Windows drives compositor window operations for voice window commands.
type Windows struct{}

// Maximize fullscreens the active window (maximize variant, keeping bars).
func (Windows) Maximize(ctx context.Context) error {
	return runHyprctl(ctx, "--quiet", "dispatch", "fullscreen", "1")
}

// Minimize parks the active window on the special minimized workspace.
// Hyprland has no true minimize; this is the conventional equivalent.
func (Windows) Minimize(ctx context.Context) error {
	return runHyprctl(ctx, "--quiet", "dispatch", "movetoworkspacesilent", "special:minimized")
}

// CloseActive closes the focused window.
func (Windows) CloseActive(ctx context.Context) error {
	return runHyprctl(ctx, "--quiet", "dispatch", "killactive")
}

// CycleNext focuses the next window on the workspace.
func (Windows) CycleNext(ctx context.Context) error {
	return runHyprctl(ctx, "--quiet", "dispatch", "cyclenext")
}

func runHyprctl(ctx context.Context, args ...string) error {
	_, err := runHyprctlOutput(ctx, args...)
	return err
}

func runHyprctlOutput(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "hyprctl", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(out))
		if trimmed == "" {
			return nil, fmt.Errorf("hyprctl %v failed: %w", args, err)
		}
		return nil, fmt.Errorf("hyprctl %v failed: %w (%s)", args, err, trimmed)
	}
	return out, nil
}
