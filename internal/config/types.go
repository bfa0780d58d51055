// Package config resolves, parses, migrates, validates, and defaults the
// voicekey configuration: the JSONC config file and the YAML command pack.
package config

// CurrentVersion is the config schema version this build reads and writes.
// Older files are migrated forward on load; newer files are rejected.
const CurrentVersion = 3

// Config is the fully materialized runtime configuration.
type Config struct {
	Version    int
	Audio      AudioConfig
	VAD        VADConfig
	Wake       WakeConfig
	Modes      ModesConfig
	Recognizer RecognizerConfig
	Typing     TypingConfig
	Fuzzy      FuzzyConfig
	Hotkeys    HotkeysConfig
	Features   FeaturesConfig
	Privacy    PrivacyConfig
	UI         UIConfig
	Output     OutputConfig
	Profiles   map[string]Profile
}

// AudioConfig controls the capture backend and input-source selection.
type AudioConfig struct {
	Backend      string
	Device       string
	Fallback     string
	SampleRateHz int
	ChunkMS      int
}

// VADConfig controls the voice activity gate in front of the recognizer.
type VADConfig struct {
	Enabled     bool
	Engine      string
	Threshold   float64
	MinSpeechMS int
}

// WakeConfig controls wake-phrase detection.
type WakeConfig struct {
	Enabled              bool
	Phrase               string
	Sensitivity          float64
	WindowTimeoutSeconds int
}

// ModesConfig selects the activation mode and its timers.
type ModesConfig struct {
	Default                string
	InactivityPauseSeconds int
	// PausedResumePhrase allows "resume voice key" to leave paused. When
	// false only the hotkey or the stop phrase works while paused.
	PausedResumePhrase bool
}

// RecognizerConfig selects the speech recognizer endpoints.
type RecognizerConfig struct {
	Mode           string
	StreamURL      string
	BatchURL       string
	Model          string
	Language       string
	TimeoutSeconds int
}

// TypingConfig controls how finals become keystrokes.
type TypingConfig struct {
	ConfidenceThreshold float64
	TrailingSpace       bool
	CapitalizeSentences bool
	CommandSuffix       string
}

// FuzzyConfig controls approximate command matching.
type FuzzyConfig struct {
	Enabled   bool
	Threshold float64
}

// HotkeysConfig holds the global chord bindings.
type HotkeysConfig struct {
	Toggle string
	Pause  string
	Stop   string
}

// FeaturesConfig gates optional functionality.
type FeaturesConfig struct {
	WindowCommands bool
	TextExpansion  bool
	PerAppProfiles bool
}

// PrivacyConfig controls what reaches the log file.
type PrivacyConfig struct {
	LogTranscripts bool
}

// UIConfig controls the indicator surface.
type UIConfig struct {
	Notifications  bool
	Backend        string
	DesktopAppName string
	ErrorTimeoutMS int
	AudioFeedback  bool
}

// OutputConfig controls the injection path.
type OutputConfig struct {
	ClipboardCmd  CommandConfig
	PasteShortcut string
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Profile overrides typing behavior for windows whose class matches one of
// the Match substrings.
type Profile struct {
	Match  []string
	Typing TypingOverride
}

// TypingOverride holds the per-profile typing settings; nil fields keep the
// global value.
type TypingOverride struct {
	ConfidenceThreshold *float64
	TrailingSpace       *bool
	CapitalizeSentences *bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
