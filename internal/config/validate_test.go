package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateDefaultsAreClean(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestValidateRejectsInvalidCoreFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "unknown audio backend", mutate: func(c *Config) { c.Audio.Backend = "jack" }, wantErr: "audio.backend"},
		{name: "odd sample rate", mutate: func(c *Config) { c.Audio.SampleRateHz = 44100 }, wantErr: "sample_rate_hz"},
		{name: "chunk too small", mutate: func(c *Config) { c.Audio.ChunkMS = 5 }, wantErr: "chunk_ms"},
		{name: "unknown vad engine", mutate: func(c *Config) { c.VAD.Engine = "silero" }, wantErr: "vad.engine"},
		{name: "vad threshold out of range", mutate: func(c *Config) { c.VAD.Threshold = 1.5 }, wantErr: "vad.threshold"},
		{name: "unknown mode", mutate: func(c *Config) { c.Modes.Default = "always_on" }, wantErr: "modes.default"},
		{name: "zero inactivity pause", mutate: func(c *Config) { c.Modes.InactivityPauseSeconds = 0 }, wantErr: "inactivity_pause_seconds"},
		{name: "wake disabled in wake_word mode", mutate: func(c *Config) { c.Wake.Enabled = false }, wantErr: "wake.enabled"},
		{name: "empty wake phrase in wake_word mode", mutate: func(c *Config) { c.Wake.Phrase = " " }, wantErr: "wake.phrase"},
		{name: "wake sensitivity out of range", mutate: func(c *Config) { c.Wake.Sensitivity = 0 }, wantErr: "wake.sensitivity"},
		{name: "zero window timeout", mutate: func(c *Config) { c.Wake.WindowTimeoutSeconds = 0 }, wantErr: "window_timeout_seconds"},
		{name: "unknown recognizer mode", mutate: func(c *Config) { c.Recognizer.Mode = "offline" }, wantErr: "recognizer.mode"},
		{name: "local_only without stream url", mutate: func(c *Config) { c.Recognizer.StreamURL = "" }, wantErr: "stream_url"},
		{name: "hybrid without batch url", mutate: func(c *Config) { c.Recognizer.Mode = "hybrid" }, wantErr: "batch_url"},
		{name: "empty language", mutate: func(c *Config) { c.Recognizer.Language = "" }, wantErr: "language"},
		{name: "zero recognizer timeout", mutate: func(c *Config) { c.Recognizer.TimeoutSeconds = 0 }, wantErr: "timeout_seconds"},
		{name: "typing threshold out of range", mutate: func(c *Config) { c.Typing.ConfidenceThreshold = -0.1 }, wantErr: "confidence_threshold"},
		{name: "empty command suffix", mutate: func(c *Config) { c.Typing.CommandSuffix = " " }, wantErr: "command_suffix"},
		{name: "multi-word command suffix", mutate: func(c *Config) { c.Typing.CommandSuffix = "run it" }, wantErr: "single word"},
		{name: "fuzzy threshold out of range", mutate: func(c *Config) { c.Fuzzy.Threshold = 1 }, wantErr: "fuzzy.threshold"},
		{name: "bad hotkey chord", mutate: func(c *Config) { c.Hotkeys.Toggle = "hyper+q" }, wantErr: "hotkeys.toggle"},
		{name: "unknown ui backend", mutate: func(c *Config) { c.UI.Backend = "waybar" }, wantErr: "ui.backend"},
		{name: "desktop backend without app name", mutate: func(c *Config) {
			c.UI.Backend = "desktop"
			c.UI.DesktopAppName = ""
		}, wantErr: "desktop_app_name"},
		{name: "negative error timeout", mutate: func(c *Config) { c.UI.ErrorTimeoutMS = -1 }, wantErr: "error_timeout_ms"},
		{name: "empty clipboard argv", mutate: func(c *Config) { c.Output.ClipboardCmd.Argv = nil }, wantErr: "clipboard_cmd"},
		{name: "empty paste shortcut", mutate: func(c *Config) { c.Output.PasteShortcut = "" }, wantErr: "paste_shortcut"},
		{name: "profile without match", mutate: func(c *Config) {
			c.Profiles["editors"] = Profile{}
		}, wantErr: "profiles.editors.match"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)

			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateWarningsForRiskySettings(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantWarn string
	}{
		{name: "vad disabled", mutate: func(c *Config) { c.VAD.Enabled = false }, wantWarn: "vad.enabled"},
		{name: "wake idle outside wake_word", mutate: func(c *Config) { c.Modes.Default = "toggle" }, wantWarn: "idle in toggle mode"},
		{name: "permissive fuzzy threshold", mutate: func(c *Config) {
			c.Fuzzy.Enabled = true
			c.Fuzzy.Threshold = 0.5
		}, wantWarn: "permissive"},
		{name: "profiles without feature flag", mutate: func(c *Config) {
			c.Profiles["terminals"] = Profile{Match: []string{"terminal"}}
		}, wantWarn: "per_app_profiles"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)

			warnings, err := Validate(cfg)
			require.NoError(t, err)
			require.NotEmpty(t, warnings)

			found := false
			for _, w := range warnings {
				if strings.Contains(w.Message, tc.wantWarn) {
					found = true
					break
				}
			}
			require.True(t, found, "warnings %v missing %q", warnings, tc.wantWarn)
		})
	}
}
