package vad

import (
	"fmt"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"

	"github.com/voicekey-io/voicekey/internal/audio"
)

// WebRTC wraps the native WebRTC voice activity detector. Frames are split
// into 10ms subframes; the frame is speech when at least half the subframes
// are voiced.
type WebRTC struct {
	vad  *webrtcvad.VAD
	rate int
	mode int
}

// NewWebRTC builds the detector. Threshold in 0..1 maps onto the engine's
// aggressiveness modes 0-3, higher meaning stricter speech gating.
func NewWebRTC(sampleRate int, threshold float64) (*WebRTC, error) {
	if !audio.ValidSampleRates[sampleRate] {
		return nil, fmt.Errorf("vad: unsupported sample rate %d", sampleRate)
	}

	v, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("create webrtc vad: %w", err)
	}

	mode := ModeForThreshold(threshold)
	if err := v.SetMode(mode); err != nil {
		return nil, fmt.Errorf("set vad mode %d: %w", mode, err)
	}

	return &WebRTC{vad: v, rate: sampleRate, mode: mode}, nil
}

// ModeForThreshold maps a 0..1 threshold onto aggressiveness 0-3.
func ModeForThreshold(threshold float64) int {
	switch {
	case threshold < 0.25:
		return 0
	case threshold < 0.5:
		return 1
	case threshold < 0.75:
		return 2
	default:
		return 3
	}
}

// Classify splits the frame into 10ms subframes and votes.
func (w *WebRTC) Classify(frame audio.Frame) (Result, error) {
	if frame.Rate != w.rate {
		return Result{}, fmt.Errorf("vad: frame rate %d does not match engine rate %d", frame.Rate, w.rate)
	}

	subframe := w.rate / 100 // 10ms
	if len(frame.PCM) < subframe {
		return Result{}, nil
	}

	voiced, total := 0, 0
	for off := 0; off+subframe <= len(frame.PCM); off += subframe {
		chunk := audio.BytesFromPCM(frame.PCM[off : off+subframe])
		active, err := w.vad.Process(w.rate, chunk)
		if err != nil {
			return Result{}, fmt.Errorf("vad process: %w", err)
		}
		total++
		if active {
			voiced++
		}
	}

	share := float64(voiced) / float64(total)
	return Result{Speech: share >= 0.5, Confidence: share}, nil
}

// Reset is a no-op; the engine is stateless per frame.
func (w *WebRTC) Reset() {}
