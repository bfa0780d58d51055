package command

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSnippetExpansion(t *testing.T) {
	expander, err := NewSnippetExpander(map[string]string{
		"brb":  "be right back",
		"addr": "12 Example Street",
		"sig":  "regards, addr",
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single token", "brb", "be right back"},
		{"inside sentence", "ok brb now", "ok be right back now"},
		{"case insensitive trigger", "BRB", "be right back"},
		{"no trigger untouched", "nothing to expand", "nothing to expand"},
		{"nested expansion", "sig", "regards, 12 Example Street"},
		{"partial token is not a trigger", "brbx", "brbx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, expander.Expand(tt.in))
		})
	}
}

func TestSnippetRecursionGuard(t *testing.T) {
	expander, err := NewSnippetExpander(map[string]string{
		"a": "b loop",
		"b": "a loop",
	})
	require.NoError(t, err)

	// Mutual recursion terminates; each trigger expands at most once per trail.
	out := expander.Expand("a")
	require.NotEmpty(t, out)
	require.Contains(t, out, "loop")
}

func TestSnippetValidation(t *testing.T) {
	_, err := NewSnippetExpander(map[string]string{"two words": "x"})
	require.ErrorContains(t, err, "single token")

	_, err = NewSnippetExpander(map[string]string{"  ": "x"})
	require.ErrorContains(t, err, "empty")
}
