package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voicekey-io/voicekey/internal/command"
)

func TestParsePackBuildsSortedCustoms(t *testing.T) {
	pack, err := parsePack(strings.NewReader(`
commands:
  zoom_in:
    phrase: "zoom in"
    action: key_combo
    keys: ["CTRL", "plus"]
  sign_off:
    phrase: "sign off"
    action: text
    text: "Best regards,\nAlex"
snippets:
  addr: "1 Main St"
`))
	require.NoError(t, err)

	require.Len(t, pack.Customs, 2)
	// Pack keys are iterated in sorted order so loads are deterministic.
	require.Equal(t, "custom_sign_off", pack.Customs[0].ID)
	require.Equal(t, command.ActionText, pack.Customs[0].Action)
	require.Equal(t, "Best regards,\nAlex", pack.Customs[0].Text)
	require.Equal(t, "custom_zoom_in", pack.Customs[1].ID)
	require.Equal(t, command.ActionKeyCombo, pack.Customs[1].Action)
	require.Equal(t, []string{"CTRL", "plus"}, pack.Customs[1].Keys)

	require.Equal(t, "1 Main St", pack.Snippets["addr"])

	byID := pack.CustomsByID()
	require.Equal(t, pack.Customs[1], byID["custom_zoom_in"])
}

func TestParsePackRejectsUnknownKeys(t *testing.T) {
	_, err := parsePack(strings.NewReader(`
commands:
  zoom_in:
    phrases: "zoom in"
    action: key_combo
    keys: ["CTRL", "plus"]
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse command pack")
}

func TestParsePackRejectsInvalidCommand(t *testing.T) {
	_, err := parsePack(strings.NewReader(`
commands:
  broken:
    phrase: "do it"
    action: key_combo
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "key_combo action requires keys")
}

func TestParsePackEmptyDocument(t *testing.T) {
	pack, err := parsePack(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, pack.Customs)
	require.NotNil(t, pack.Snippets)
}

func TestLoadPackMissingFileIsEmpty(t *testing.T) {
	pack, err := LoadPack(filepath.Join(t.TempDir(), "commands.yaml"))
	require.NoError(t, err)
	require.Empty(t, pack.Customs)
	require.NotNil(t, pack.Snippets)
}
