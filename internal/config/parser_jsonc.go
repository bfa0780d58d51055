package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type jsoncConfig struct {
	Version    *int             `json:"version"`
	Audio      *jsoncAudio      `json:"audio"`
	VAD        *jsoncVAD        `json:"vad"`
	Wake       *jsoncWake       `json:"wake"`
	Modes      *jsoncModes      `json:"modes"`
	Recognizer *jsoncRecognizer `json:"recognizer"`
	Typing     *jsoncTyping     `json:"typing"`
	Fuzzy      *jsoncFuzzy      `json:"fuzzy"`
	Hotkeys    *jsoncHotkeys    `json:"hotkeys"`
	Features   *jsoncFeatures   `json:"features"`
	Privacy    *jsoncPrivacy    `json:"privacy"`
	UI         *jsoncUI         `json:"ui"`
	Output     *jsoncOutput     `json:"output"`

	Profiles map[string]jsoncProfile `json:"profiles"`
}

type jsoncAudio struct {
	Backend      *string `json:"backend"`
	Device       *string `json:"device"`
	Fallback     *string `json:"fallback"`
	SampleRateHz *int    `json:"sample_rate_hz"`
	ChunkMS      *int    `json:"chunk_ms"`
}

type jsoncVAD struct {
	Enabled     *bool    `json:"enabled"`
	Engine      *string  `json:"engine"`
	Threshold   *float64 `json:"threshold"`
	MinSpeechMS *int     `json:"min_speech_ms"`
}

type jsoncWake struct {
	Enabled              *bool    `json:"enabled"`
	Phrase               *string  `json:"phrase"`
	Sensitivity          *float64 `json:"sensitivity"`
	WindowTimeoutSeconds *int     `json:"window_timeout_seconds"`
}

type jsoncModes struct {
	Default                *string `json:"default"`
	InactivityPauseSeconds *int    `json:"inactivity_pause_seconds"`
	PausedResumePhrase     *bool   `json:"paused_resume_phrase"`
}

type jsoncRecognizer struct {
	Mode           *string `json:"mode"`
	StreamURL      *string `json:"stream_url"`
	BatchURL       *string `json:"batch_url"`
	Model          *string `json:"model"`
	Language       *string `json:"language"`
	TimeoutSeconds *int    `json:"timeout_seconds"`
}

type jsoncTyping struct {
	ConfidenceThreshold *float64 `json:"confidence_threshold"`
	TrailingSpace       *bool    `json:"trailing_space"`
	CapitalizeSentences *bool    `json:"capitalize_sentences"`
	CommandSuffix       *string  `json:"command_suffix"`
}

type jsoncFuzzy struct {
	Enabled   *bool    `json:"enabled"`
	Threshold *float64 `json:"threshold"`
}

type jsoncHotkeys struct {
	Toggle *string `json:"toggle"`
	Pause  *string `json:"pause"`
	Stop   *string `json:"stop"`
}

type jsoncFeatures struct {
	WindowCommands *bool `json:"window_commands"`
	TextExpansion  *bool `json:"text_expansion"`
	PerAppProfiles *bool `json:"per_app_profiles"`
}

type jsoncPrivacy struct {
	LogTranscripts *bool `json:"log_transcripts"`
}

type jsoncUI struct {
	Notifications  *bool   `json:"notifications"`
	Backend        *string `json:"backend"`
	DesktopAppName *string `json:"desktop_app_name"`
	ErrorTimeoutMS *int    `json:"error_timeout_ms"`
	AudioFeedback  *bool   `json:"audio_feedback"`
}

type jsoncOutput struct {
	ClipboardCmd  *string `json:"clipboard_cmd"`
	PasteShortcut *string `json:"paste_shortcut"`
}

type jsoncProfile struct {
	Match  []string          `json:"match"`
	Typing *jsoncTypingShort `json:"typing"`
}

type jsoncTypingShort struct {
	ConfidenceThreshold *float64 `json:"confidence_threshold"`
	TrailingSpace       *bool    `json:"trailing_space"`
	CapitalizeSentences *bool    `json:"capitalize_sentences"`
}

// Parse reads one JSONC config document, migrates older schema versions
// forward, and overlays it onto base.
func Parse(content string, base Config) (Config, []Warning, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		validatedWarnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, validatedWarnings, nil
	}

	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	// First pass is schema-free so migrations can rewrite renamed keys
	// before the strict decode sees them.
	var raw map[string]any
	if err := json.Unmarshal([]byte(normalized), &raw); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	migrationWarnings, err := migrate(raw)
	if err != nil {
		return Config{}, nil, err
	}

	migrated, err := json.Marshal(raw)
	if err != nil {
		return Config{}, nil, fmt.Errorf("re-encode migrated config: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(migrated))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	if err := payload.applyTo(&cfg); err != nil {
		return Config{}, nil, err
	}

	warnings := migrationWarnings
	validatedWarnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	warnings = append(warnings, validatedWarnings...)
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) error {
	cfg.Version = CurrentVersion

	if payload.Audio != nil {
		if payload.Audio.Backend != nil {
			cfg.Audio.Backend = strings.TrimSpace(*payload.Audio.Backend)
		}
		if payload.Audio.Device != nil {
			cfg.Audio.Device = strings.TrimSpace(*payload.Audio.Device)
		}
		if payload.Audio.Fallback != nil {
			cfg.Audio.Fallback = strings.TrimSpace(*payload.Audio.Fallback)
		}
		if payload.Audio.SampleRateHz != nil {
			cfg.Audio.SampleRateHz = *payload.Audio.SampleRateHz
		}
		if payload.Audio.ChunkMS != nil {
			cfg.Audio.ChunkMS = *payload.Audio.ChunkMS
		}
	}

	if payload.VAD != nil {
		if payload.VAD.Enabled != nil {
			cfg.VAD.Enabled = *payload.VAD.Enabled
		}
		if payload.VAD.Engine != nil {
			cfg.VAD.Engine = strings.TrimSpace(*payload.VAD.Engine)
		}
		if payload.VAD.Threshold != nil {
			cfg.VAD.Threshold = *payload.VAD.Threshold
		}
		if payload.VAD.MinSpeechMS != nil {
			cfg.VAD.MinSpeechMS = *payload.VAD.MinSpeechMS
		}
	}

	if payload.Wake != nil {
		if payload.Wake.Enabled != nil {
			cfg.Wake.Enabled = *payload.Wake.Enabled
		}
		if payload.Wake.Phrase != nil {
			cfg.Wake.Phrase = strings.TrimSpace(*payload.Wake.Phrase)
		}
		if payload.Wake.Sensitivity != nil {
			cfg.Wake.Sensitivity = *payload.Wake.Sensitivity
		}
		if payload.Wake.WindowTimeoutSeconds != nil {
			cfg.Wake.WindowTimeoutSeconds = *payload.Wake.WindowTimeoutSeconds
		}
	}

	if payload.Modes != nil {
		if payload.Modes.Default != nil {
			cfg.Modes.Default = strings.TrimSpace(*payload.Modes.Default)
		}
		if payload.Modes.InactivityPauseSeconds != nil {
			cfg.Modes.InactivityPauseSeconds = *payload.Modes.InactivityPauseSeconds
		}
		if payload.Modes.PausedResumePhrase != nil {
			cfg.Modes.PausedResumePhrase = *payload.Modes.PausedResumePhrase
		}
	}

	if payload.Recognizer != nil {
		if payload.Recognizer.Mode != nil {
			cfg.Recognizer.Mode = strings.TrimSpace(*payload.Recognizer.Mode)
		}
		if payload.Recognizer.StreamURL != nil {
			cfg.Recognizer.StreamURL = strings.TrimSpace(*payload.Recognizer.StreamURL)
		}
		if payload.Recognizer.BatchURL != nil {
			cfg.Recognizer.BatchURL = strings.TrimSpace(*payload.Recognizer.BatchURL)
		}
		if payload.Recognizer.Model != nil {
			cfg.Recognizer.Model = strings.TrimSpace(*payload.Recognizer.Model)
		}
		if payload.Recognizer.Language != nil {
			cfg.Recognizer.Language = strings.TrimSpace(*payload.Recognizer.Language)
		}
		if payload.Recognizer.TimeoutSeconds != nil {
			cfg.Recognizer.TimeoutSeconds = *payload.Recognizer.TimeoutSeconds
		}
	}

	if payload.Typing != nil {
		if payload.Typing.ConfidenceThreshold != nil {
			cfg.Typing.ConfidenceThreshold = *payload.Typing.ConfidenceThreshold
		}
		if payload.Typing.TrailingSpace != nil {
			cfg.Typing.TrailingSpace = *payload.Typing.TrailingSpace
		}
		if payload.Typing.CapitalizeSentences != nil {
			cfg.Typing.CapitalizeSentences = *payload.Typing.CapitalizeSentences
		}
		if payload.Typing.CommandSuffix != nil {
			cfg.Typing.CommandSuffix = strings.TrimSpace(*payload.Typing.CommandSuffix)
		}
	}

	if payload.Fuzzy != nil {
		if payload.Fuzzy.Enabled != nil {
			cfg.Fuzzy.Enabled = *payload.Fuzzy.Enabled
		}
		if payload.Fuzzy.Threshold != nil {
			cfg.Fuzzy.Threshold = *payload.Fuzzy.Threshold
		}
	}

	if payload.Hotkeys != nil {
		if payload.Hotkeys.Toggle != nil {
			cfg.Hotkeys.Toggle = strings.TrimSpace(*payload.Hotkeys.Toggle)
		}
		if payload.Hotkeys.Pause != nil {
			cfg.Hotkeys.Pause = strings.TrimSpace(*payload.Hotkeys.Pause)
		}
		if payload.Hotkeys.Stop != nil {
			cfg.Hotkeys.Stop = strings.TrimSpace(*payload.Hotkeys.Stop)
		}
	}

	if payload.Features != nil {
		if payload.Features.WindowCommands != nil {
			cfg.Features.WindowCommands = *payload.Features.WindowCommands
		}
		if payload.Features.TextExpansion != nil {
			cfg.Features.TextExpansion = *payload.Features.TextExpansion
		}
		if payload.Features.PerAppProfiles != nil {
			cfg.Features.PerAppProfiles = *payload.Features.PerAppProfiles
		}
	}

	if payload.Privacy != nil && payload.Privacy.LogTranscripts != nil {
		cfg.Privacy.LogTranscripts = *payload.Privacy.LogTranscripts
	}

	if payload.UI != nil {
		if payload.UI.Notifications != nil {
			cfg.UI.Notifications = *payload.UI.Notifications
		}
		if payload.UI.Backend != nil {
			cfg.UI.Backend = strings.TrimSpace(*payload.UI.Backend)
		}
		if payload.UI.DesktopAppName != nil {
			cfg.UI.DesktopAppName = strings.TrimSpace(*payload.UI.DesktopAppName)
		}
		if payload.UI.ErrorTimeoutMS != nil {
			cfg.UI.ErrorTimeoutMS = *payload.UI.ErrorTimeoutMS
		}
		if payload.UI.AudioFeedback != nil {
			cfg.UI.AudioFeedback = *payload.UI.AudioFeedback
		}
	}

	if payload.Output != nil {
		if payload.Output.ClipboardCmd != nil {
			raw := *payload.Output.ClipboardCmd
			argv, err := parseArgv(raw)
			if err != nil {
				return fmt.Errorf("invalid output.clipboard_cmd: %w", err)
			}
			cfg.Output.ClipboardCmd = CommandConfig{Raw: raw, Argv: argv}
		}
		if payload.Output.PasteShortcut != nil {
			cfg.Output.PasteShortcut = strings.TrimSpace(*payload.Output.PasteShortcut)
		}
	}

	if payload.Profiles != nil {
		if cfg.Profiles == nil {
			cfg.Profiles = make(map[string]Profile)
		}
		for name, p := range payload.Profiles {
			trimmedName := strings.TrimSpace(name)
			if trimmedName == "" {
				return fmt.Errorf("profiles contains an empty profile name")
			}

			profile := Profile{Match: append([]string(nil), p.Match...)}
			if p.Typing != nil {
				profile.Typing = TypingOverride{
					ConfidenceThreshold: p.Typing.ConfidenceThreshold,
					TrailingSpace:       p.Typing.TrailingSpace,
					CapitalizeSentences: p.Typing.CapitalizeSentences,
				}
			}
			cfg.Profiles[trimmedName] = profile
		}
	}

	return nil
}

func normalizeJSONC(content string) (string, error) {
	withoutComments, err := stripJSONCComments(content)
	if err != nil {
		return "", err
	}
	return stripJSONCTrailingCommas(withoutComments), nil
}

func stripJSONCComments(content string) (string, error) {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false
	lineComment := false
	blockComment := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if lineComment {
			if ch == '\n' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			if ch == '\r' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			out.WriteByte(' ')
			continue
		}

		if blockComment {
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				blockComment = false
				out.WriteString("  ")
				i++
				continue
			}
			if ch == '\n' || ch == '\r' || ch == '\t' {
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
			continue
		}

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == '/' && i+1 < len(content) {
			next := content[i+1]
			if next == '/' {
				lineComment = true
				out.WriteString("  ")
				i++
				continue
			}
			if next == '*' {
				blockComment = true
				out.WriteString("  ")
				i++
				continue
			}
		}

		out.WriteByte(ch)
	}

	if blockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}

	return out.String(), nil
}

func stripJSONCTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == ',' {
			j := i + 1
			for j < len(content) && isJSONWhitespace(content[j]) {
				j++
			}
			if j < len(content) && (content[j] == '}' || content[j] == ']') {
				continue
			}
		}

		out.WriteByte(ch)
	}

	return out.String()
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
