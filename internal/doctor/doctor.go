// Package doctor runs runtime readiness diagnostics for the environment,
// config, tools, audio capture, and the recognizer endpoints.
package doctor

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voicekey-io/voicekey/internal/asr"
	"github.com/voicekey-io/voicekey/internal/audio"
	"github.com/voicekey-io/voicekey/internal/config"
	"github.com/voicekey-io/voicekey/internal/hotkey"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{}

	configMsg := fmt.Sprintf("loaded %q", cfg.Path)
	if len(cfg.Warnings) > 0 {
		configMsg = fmt.Sprintf("loaded %q with %d warning(s)", cfg.Path, len(cfg.Warnings))
	}
	checks = append(checks, Check{Name: "config", Pass: true, Message: configMsg})

	checks = append(checks, checkEnv("XDG_SESSION_TYPE", func(v string) bool {
		return strings.EqualFold(strings.TrimSpace(v), "wayland")
	}, "session type is wayland", "expected XDG_SESSION_TYPE=wayland"))

	checks = append(checks, checkEnv("HYPRLAND_INSTANCE_SIGNATURE", func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, "Hyprland session detected", "HYPRLAND_INSTANCE_SIGNATURE is empty"))

	checks = append(checks, checkBinary("wtype", "keystroke injection available"))
	checks = append(checks, checkBinary("hyprctl", "window control available"))
	checks = append(checks, checkCommand(cfg.Config.Output.ClipboardCmd.Argv, "output.clipboard_cmd"))

	if cfg.Config.UI.Backend == "desktop" {
		checks = append(checks, checkBinary("busctl", "desktop notifications require busctl"))
	}
	if cfg.Config.UI.AudioFeedback {
		checks = append(checks, checkBinary("pw-play", "audio cue playback available"))
	}

	checks = append(checks, checkHotkeys(cfg.Config.Hotkeys)...)
	checks = append(checks, checkAudioSelection(cfg.Config))
	checks = append(checks, checkRecognizer(cfg.Config.Recognizer)...)

	return Report{Checks: checks}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkHotkeys parses every configured chord so binding failures surface
// before the session starts.
func checkHotkeys(cfg config.HotkeysConfig) []Check {
	checks := []Check{}
	for _, entry := range []struct {
		name  string
		chord string
	}{
		{"hotkeys.toggle", cfg.Toggle},
		{"hotkeys.pause", cfg.Pause},
		{"hotkeys.stop", cfg.Stop},
	} {
		if strings.TrimSpace(entry.chord) == "" {
			continue
		}
		if _, err := hotkey.ParseChord(entry.chord); err != nil {
			checks = append(checks, Check{Name: entry.name, Pass: false, Message: err.Error()})
			continue
		}
		checks = append(checks, Check{Name: entry.name, Pass: true, Message: fmt.Sprintf("chord %q parses", entry.chord)})
	}
	return checks
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(cfg config.Config) Check {
	if cfg.Audio.Backend != "pulse" {
		return Check{Name: "audio.device", Pass: true, Message: fmt.Sprintf("backend %q selects its device at capture start", cfg.Audio.Backend)}
	}
	selection, err := audio.SelectDevice(context.Background(), cfg.Audio.Device, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkRecognizer probes the endpoints the configured recognizer mode needs.
func checkRecognizer(cfg config.RecognizerConfig) []Check {
	checks := []Check{}
	mode := asr.Mode(cfg.Mode)

	if mode == asr.ModeLocal || mode == asr.ModeHybrid {
		checks = append(checks, checkStreamEndpoint(cfg.StreamURL))
	}
	if mode == asr.ModeHybrid || mode == asr.ModeCloud {
		checks = append(checks, checkBatchEndpoint(cfg.BatchURL)...)
	}
	return checks
}

// checkStreamEndpoint dials the streaming recognizer websocket.
func checkStreamEndpoint(streamURL string) Check {
	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(streamURL, nil)
	if err != nil {
		return Check{Name: "recognizer.stream", Pass: false, Message: fmt.Sprintf("dial %s: %v", streamURL, err)}
	}
	_ = conn.Close()
	return Check{Name: "recognizer.stream", Pass: true, Message: fmt.Sprintf("websocket reachable at %s", streamURL)}
}

// checkBatchEndpoint verifies the batch endpoint is reachable and, for
// non-loopback hosts, that the API key is present in the environment.
func checkBatchEndpoint(batchURL string) []Check {
	checks := []Check{}

	parsed, err := url.Parse(batchURL)
	if err != nil {
		return append(checks, Check{Name: "recognizer.batch", Pass: false, Message: fmt.Sprintf("invalid batch_url: %v", err)})
	}

	client := http.Client{Timeout: 2 * time.Second}
	resp, err := client.Head(batchURL)
	if err != nil {
		checks = append(checks, Check{Name: "recognizer.batch", Pass: false, Message: fmt.Sprintf("request failed: %v", err)})
	} else {
		resp.Body.Close()
		// Any HTTP response means the endpoint is reachable; auth failures
		// belong to the key check below.
		checks = append(checks, Check{Name: "recognizer.batch", Pass: true, Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, batchURL)})
	}

	if !isLoopbackHost(parsed.Hostname()) {
		if strings.TrimSpace(os.Getenv(asr.APIKeyEnv)) == "" {
			checks = append(checks, Check{Name: "recognizer.api_key", Pass: false, Message: fmt.Sprintf("%s is not set; required for non-local batch endpoints", asr.APIKeyEnv)})
		} else {
			checks = append(checks, Check{Name: "recognizer.api_key", Pass: true, Message: fmt.Sprintf("%s is set", asr.APIKeyEnv)})
		}
	}

	return checks
}

func isLoopbackHost(host string) bool {
	switch host {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}
