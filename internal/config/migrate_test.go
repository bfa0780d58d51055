package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMigratesV1Document(t *testing.T) {
	cfg, warnings, err := Parse(`{
  "recognizer": {"url": "ws://10.0.0.5:2700"},
  "typing": {"fuzzy_enabled": true, "fuzzy_threshold": 0.9}
}`, Default())
	require.NoError(t, err)

	require.Equal(t, CurrentVersion, cfg.Version)
	require.Equal(t, "ws://10.0.0.5:2700", cfg.Recognizer.StreamURL)
	require.True(t, cfg.Fuzzy.Enabled)
	require.Equal(t, 0.9, cfg.Fuzzy.Threshold)

	found := false
	for _, w := range warnings {
		if strings.Contains(w.Message, "migrated to schema version") {
			found = true
		}
	}
	require.True(t, found, "expected migration warning, got %v", warnings)
}

func TestParseMigratesV2Renames(t *testing.T) {
	cfg, _, err := Parse(`{
  "version": 2,
  "modes": {"resume_phrase": false},
  "ui": {"sound": false}
}`, Default())
	require.NoError(t, err)

	require.False(t, cfg.Modes.PausedResumePhrase)
	require.False(t, cfg.UI.AudioFeedback)
}

func TestParseCurrentVersionEmitsNoMigrationWarning(t *testing.T) {
	_, warnings, err := Parse(`{"version": 3}`, Default())
	require.NoError(t, err)
	for _, w := range warnings {
		require.NotContains(t, w.Message, "migrated")
	}
}

func TestParseRejectsFutureVersion(t *testing.T) {
	_, _, err := Parse(`{"version": 4}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "newer than this build")
}

func TestParseRejectsNonPositiveVersion(t *testing.T) {
	_, _, err := Parse(`{"version": 0}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "version must be >= 1")
}

func TestMigrateV1KeepsExplicitStreamURL(t *testing.T) {
	raw := map[string]any{
		"recognizer": map[string]any{
			"url":        "ws://old:2700",
			"stream_url": "ws://new:2700",
		},
	}
	migrateV1(raw)

	rec := raw["recognizer"].(map[string]any)
	require.Equal(t, "ws://new:2700", rec["stream_url"])
	require.NotContains(t, rec, "url")
}
