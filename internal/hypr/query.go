package hypr

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ActiveWindow identifies the focused client for paste targeting and
// per-app profile matching.
type ActiveWindow struct {
	Address      string `json:"address"`
	Class        string `json:"class"`
	InitialClass string `json:"initialClass"`
	Title        string `json:"title"`
}

// Target renders the window as a hyprctl dispatch target selector.
func (w ActiveWindow) Target() string {
	return "address:" + w.Address
}

// Monitor is one output as reported by hyprctl monitors.
type Monitor struct {
	Name    string `json:"name"`
	Focused bool   `json:"focused"`
}

// Icon selects the hyprctl notify icon glyph.
type Icon int

const (
	IconWarning Icon = 0
	IconInfo    Icon = 1
	IconHint    Icon = 2
	IconError   Icon = 3
	IconNone    Icon = -1
)

const defaultNotifyColor = "rgb(89b4fa)"

// QueryActiveWindow reads the focused window from the compositor. An empty
// address means no window has focus, which callers treat as an error.
func QueryActiveWindow(ctx context.Context) (ActiveWindow, error) {
	window, err := queryObject[ActiveWindow](ctx, "activewindow")
	if err != nil {
		return ActiveWindow{}, err
	}
	window.Address = strings.TrimSpace(window.Address)
	window.Class = strings.TrimSpace(window.Class)
	window.InitialClass = strings.TrimSpace(window.InitialClass)
	window.Title = strings.TrimSpace(window.Title)
	if window.Address == "" {
		return ActiveWindow{}, fmt.Errorf("hyprctl activewindow returned empty address")
	}
	return window, nil
}

// QueryFocusedMonitor names the focused output, falling back to the first
// one when the compositor reports no focus.
func QueryFocusedMonitor(ctx context.Context) (string, error) {
	monitors, err := queryObject[[]Monitor](ctx, "monitors")
	if err != nil {
		return "", err
	}
	if len(monitors) == 0 {
		return "", fmt.Errorf("hyprctl monitors returned no outputs")
	}
	pick := monitors[0]
	for _, mon := range monitors {
		if mon.Focused {
			pick = mon
			break
		}
	}
	return strings.TrimSpace(pick.Name), nil
}

// SendShortcut dispatches a sendshortcut payload, typically a paste chord
// pinned to a window address.
func SendShortcut(ctx context.Context, shortcut string) error {
	shortcut = strings.TrimSpace(shortcut)
	if shortcut == "" {
		return fmt.Errorf("sendshortcut requires a non-empty payload")
	}
	return runHyprctl(ctx, "--quiet", "dispatch", "sendshortcut", shortcut)
}

// Notify raises a compositor notification.
func Notify(ctx context.Context, icon Icon, timeoutMS int, color string, text string) error {
	if strings.TrimSpace(color) == "" {
		color = defaultNotifyColor
	}
	return runHyprctl(ctx, "--quiet", "dispatch", "notify",
		strconv.Itoa(int(icon)), strconv.Itoa(timeoutMS), color, text)
}

// DismissNotify clears active compositor notifications.
func DismissNotify(ctx context.Context) error {
	return runHyprctl(ctx, "--quiet", "dispatch", "dismissnotify")
}

// queryObject runs a JSON-mode hyprctl query and decodes it into T.
func queryObject[T any](ctx context.Context, object string) (T, error) {
	var decoded T
	out, err := runHyprctlOutput(ctx, "-j", object)
	if err != nil {
		return decoded, err
	}
	if err := json.Unmarshal(out, &decoded); err != nil {
		return decoded, fmt.Errorf("decode hyprctl %s json: %w", object, err)
	}
	return decoded, nil
}
