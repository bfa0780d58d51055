package config

import (
	"fmt"
	"strings"

	"github.com/voicekey-io/voicekey/internal/hotkey"
)

var validSampleRates = map[int]bool{8000: true, 16000: true, 32000: true, 48000: true}

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	switch strings.ToLower(strings.TrimSpace(cfg.Audio.Backend)) {
	case "pulse", "portaudio":
	default:
		return nil, fmt.Errorf("audio.backend must be one of: pulse, portaudio")
	}
	if !validSampleRates[cfg.Audio.SampleRateHz] {
		return nil, fmt.Errorf("audio.sample_rate_hz must be one of 8000, 16000, 32000, 48000")
	}
	if cfg.Audio.ChunkMS < 10 || cfg.Audio.ChunkMS > 500 {
		return nil, fmt.Errorf("audio.chunk_ms must be between 10 and 500")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.VAD.Engine)) {
	case "webrtc", "energy":
	default:
		return nil, fmt.Errorf("vad.engine must be one of: webrtc, energy")
	}
	if cfg.VAD.Threshold < 0 || cfg.VAD.Threshold > 1 {
		return nil, fmt.Errorf("vad.threshold must be within [0, 1]")
	}
	if cfg.VAD.MinSpeechMS < 0 {
		return nil, fmt.Errorf("vad.min_speech_ms must be >= 0")
	}
	if !cfg.VAD.Enabled {
		warnings = append(warnings, Warning{Message: "vad.enabled=false streams all audio to the recognizer, including silence"})
	}

	mode := strings.TrimSpace(cfg.Modes.Default)
	switch mode {
	case "wake_word", "toggle", "continuous":
	default:
		return nil, fmt.Errorf("modes.default must be one of: wake_word, toggle, continuous")
	}
	if cfg.Modes.InactivityPauseSeconds <= 0 {
		return nil, fmt.Errorf("modes.inactivity_pause_seconds must be > 0")
	}

	if mode == "wake_word" {
		if !cfg.Wake.Enabled {
			return nil, fmt.Errorf("wake.enabled must be true in wake_word mode")
		}
		if strings.TrimSpace(cfg.Wake.Phrase) == "" {
			return nil, fmt.Errorf("wake.phrase must not be empty in wake_word mode")
		}
	} else if cfg.Wake.Enabled {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("wake detection is idle in %s mode", mode)})
	}
	if cfg.Wake.Sensitivity <= 0 || cfg.Wake.Sensitivity > 1 {
		return nil, fmt.Errorf("wake.sensitivity must be within (0, 1]")
	}
	if cfg.Wake.WindowTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("wake.window_timeout_seconds must be > 0")
	}

	switch strings.TrimSpace(cfg.Recognizer.Mode) {
	case "local_only", "hybrid":
		if strings.TrimSpace(cfg.Recognizer.StreamURL) == "" {
			return nil, fmt.Errorf("recognizer.stream_url must be set for mode %q", cfg.Recognizer.Mode)
		}
	case "cloud_primary":
	default:
		return nil, fmt.Errorf("recognizer.mode must be one of: local_only, hybrid, cloud_primary")
	}
	if m := strings.TrimSpace(cfg.Recognizer.Mode); m == "hybrid" || m == "cloud_primary" {
		if strings.TrimSpace(cfg.Recognizer.BatchURL) == "" {
			return nil, fmt.Errorf("recognizer.batch_url must be set for mode %q", m)
		}
	}
	if strings.TrimSpace(cfg.Recognizer.Language) == "" {
		return nil, fmt.Errorf("recognizer.language must not be empty")
	}
	if cfg.Recognizer.TimeoutSeconds <= 0 {
		return nil, fmt.Errorf("recognizer.timeout_seconds must be > 0")
	}

	if cfg.Typing.ConfidenceThreshold < 0 || cfg.Typing.ConfidenceThreshold > 1 {
		return nil, fmt.Errorf("typing.confidence_threshold must be within [0, 1]")
	}
	suffix := strings.TrimSpace(cfg.Typing.CommandSuffix)
	if suffix == "" {
		return nil, fmt.Errorf("typing.command_suffix must not be empty")
	}
	if strings.Contains(suffix, " ") {
		return nil, fmt.Errorf("typing.command_suffix must be a single word")
	}

	if cfg.Fuzzy.Threshold <= 0 || cfg.Fuzzy.Threshold >= 1 {
		return nil, fmt.Errorf("fuzzy.threshold must be within (0, 1)")
	}
	if cfg.Fuzzy.Enabled && cfg.Fuzzy.Threshold < 0.7 {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("fuzzy.threshold %.2f is permissive; expect accidental command matches", cfg.Fuzzy.Threshold)})
	}

	for name, chord := range map[string]string{
		"hotkeys.toggle": cfg.Hotkeys.Toggle,
		"hotkeys.pause":  cfg.Hotkeys.Pause,
		"hotkeys.stop":   cfg.Hotkeys.Stop,
	} {
		if strings.TrimSpace(chord) == "" {
			continue
		}
		if _, err := hotkey.ParseChord(chord); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.UI.Backend))
	if backend != "hypr" && backend != "desktop" {
		return nil, fmt.Errorf("ui.backend must be one of: hypr, desktop")
	}
	if backend == "desktop" && strings.TrimSpace(cfg.UI.DesktopAppName) == "" {
		return nil, fmt.Errorf("ui.desktop_app_name must not be empty when ui.backend=desktop")
	}
	if cfg.UI.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("ui.error_timeout_ms must be >= 0")
	}

	if len(cfg.Output.ClipboardCmd.Argv) == 0 {
		return nil, fmt.Errorf("output.clipboard_cmd must not be empty")
	}
	if strings.TrimSpace(cfg.Output.PasteShortcut) == "" {
		return nil, fmt.Errorf("output.paste_shortcut must not be empty")
	}

	for name, profile := range cfg.Profiles {
		if len(profile.Match) == 0 {
			return nil, fmt.Errorf("profiles.%s.match must list at least one window class", name)
		}
		if t := profile.Typing.ConfidenceThreshold; t != nil && (*t < 0 || *t > 1) {
			return nil, fmt.Errorf("profiles.%s.typing.confidence_threshold must be within [0, 1]", name)
		}
	}
	if len(cfg.Profiles) > 0 && !cfg.Features.PerAppProfiles {
		warnings = append(warnings, Warning{Message: "profiles are configured but features.per_app_profiles is off"})
	}

	return warnings, nil
}
