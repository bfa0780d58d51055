// Package vad classifies capture frames as speech or silence. Two engines
// are available: the WebRTC detector and a pure-Go energy detector used as
// fallback when the native engine cannot run.
package vad

import "github.com/voicekey-io/voicekey/internal/audio"

// Result is one frame classification.
type Result struct {
	Speech bool
	// Confidence is a 0..1 score; for the WebRTC engine it is the share of
	// voiced subframes, for the energy engine the level relative to the
	// speech threshold.
	Confidence float64
}

// Detector classifies one frame at a time. Implementations keep internal
// smoothing state; Reset clears it between utterances.
type Detector interface {
	Classify(frame audio.Frame) (Result, error)
	Reset()
}
