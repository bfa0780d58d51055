package config

// Default returns the canonical runtime configuration used when no file is
// present.
func Default() Config {
	clipboard := "wl-copy --trim-newline"

	return Config{
		Version: CurrentVersion,
		Audio: AudioConfig{
			Backend:      "pulse",
			Device:       "default",
			Fallback:     "default",
			SampleRateHz: 16000,
			ChunkMS:      30,
		},
		VAD: VADConfig{
			Enabled:     true,
			Engine:      "webrtc",
			Threshold:   0.5,
			MinSpeechMS: 200,
		},
		Wake: WakeConfig{
			Enabled:              true,
			Phrase:               "hey voice key",
			Sensitivity:          0.55,
			WindowTimeoutSeconds: 5,
		},
		Modes: ModesConfig{
			Default:                "wake_word",
			InactivityPauseSeconds: 30,
			PausedResumePhrase:     true,
		},
		Recognizer: RecognizerConfig{
			Mode:           "local_only",
			StreamURL:      "ws://127.0.0.1:2700",
			Language:       "en-US",
			TimeoutSeconds: 10,
		},
		Typing: TypingConfig{
			ConfidenceThreshold: 0.4,
			TrailingSpace:       true,
			CapitalizeSentences: false,
			CommandSuffix:       "command",
		},
		Fuzzy: FuzzyConfig{
			Enabled:   false,
			Threshold: 0.85,
		},
		Hotkeys: HotkeysConfig{
			Toggle: "ctrl+shift+m",
			Pause:  "ctrl+shift+p",
			Stop:   "ctrl+shift+e",
		},
		Features: FeaturesConfig{},
		Privacy:  PrivacyConfig{LogTranscripts: false},
		UI: UIConfig{
			Notifications:  true,
			Backend:        "hypr",
			DesktopAppName: "voicekey",
			ErrorTimeoutMS: 1600,
			AudioFeedback:  true,
		},
		Output: OutputConfig{
			ClipboardCmd:  CommandConfig{Raw: clipboard, Argv: mustParseArgv(clipboard)},
			PasteShortcut: "CTRL,V",
		},
		Profiles: map[string]Profile{},
	}
}
