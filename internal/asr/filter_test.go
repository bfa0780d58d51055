package asr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfidenceFilter(t *testing.T) {
	var droppedTexts []string
	filter := NewConfidenceFilter(0.6, func(t Transcript) {
		droppedTexts = append(droppedTexts, t.Text)
	})

	tests := []struct {
		name   string
		input  Transcript
		accept bool
	}{
		{"confident final passes", Transcript{Text: "hello", Confidence: 0.9, Final: true}, true},
		{"threshold-equal final passes", Transcript{Text: "edge", Confidence: 0.6, Final: true}, true},
		{"weak final dropped", Transcript{Text: "mumble", Confidence: 0.3, Final: true}, false},
		{"weak partial passes", Transcript{Text: "mum", Confidence: 0.1, Final: false}, true},
		{"zero-confidence partial passes", Transcript{Text: "m", Final: false}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.accept, filter.Accept(tt.input))
		})
	}

	require.Equal(t, int64(1), filter.Dropped())
	require.Equal(t, []string{"mumble"}, droppedTexts)
}

func TestConfidenceFilterClampsThreshold(t *testing.T) {
	strict := NewConfidenceFilter(2.0, nil)
	require.Equal(t, 1.0, strict.Threshold())
	require.True(t, strict.Accept(Transcript{Text: "x", Confidence: 1.0, Final: true}))

	lax := NewConfidenceFilter(-1, nil)
	require.Equal(t, 0.0, lax.Threshold())
	require.True(t, lax.Accept(Transcript{Text: "x", Confidence: 0, Final: true}))
}

func TestConfidenceFilterSetThreshold(t *testing.T) {
	filter := NewConfidenceFilter(0.4, nil)
	require.True(t, filter.Accept(Transcript{Text: "ok", Confidence: 0.5, Final: true}))

	filter.SetThreshold(0.8)
	require.Equal(t, 0.8, filter.Threshold())
	require.False(t, filter.Accept(Transcript{Text: "ok", Confidence: 0.5, Final: true}))
	// Retuning keeps the drop count.
	require.Equal(t, int64(1), filter.Dropped())

	filter.SetThreshold(5)
	require.Equal(t, 1.0, filter.Threshold())
}
