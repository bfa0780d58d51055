package vad

import (
	"math"

	"github.com/voicekey-io/voicekey/internal/audio"
)

// Energy is a pure-Go RMS detector with hysteresis: entering speech requires
// a higher level than staying in it, which suppresses flicker around the
// threshold. It needs no native code and serves as the fallback engine.
type Energy struct {
	startLevel float64
	stopLevel  float64
	floor      float64
	active     bool
}

// NewEnergy builds the detector. Threshold in 0..1 scales the speech level:
// higher threshold, louder speech required.
func NewEnergy(threshold float64) *Energy {
	if threshold < 0 {
		threshold = 0
	}
	if threshold > 1 {
		threshold = 1
	}
	// Map 0..1 onto normalized RMS levels 0.01..0.09.
	start := 0.01 + threshold*0.08
	return &Energy{
		startLevel: start,
		stopLevel:  start * 0.6,
	}
}

// Calibrate raises the effective levels above the ambient noise floor
// measured from the given silence frames.
func (e *Energy) Calibrate(frames []audio.Frame) {
	if len(frames) == 0 {
		return
	}
	sum := 0.0
	for _, frame := range frames {
		sum += rms(frame.PCM)
	}
	e.floor = sum / float64(len(frames))
}

// Classify computes the frame RMS and applies hysteresis.
func (e *Energy) Classify(frame audio.Frame) (Result, error) {
	level := rms(frame.PCM) - e.floor
	if level < 0 {
		level = 0
	}

	threshold := e.startLevel
	if e.active {
		threshold = e.stopLevel
	}
	e.active = level >= threshold

	confidence := level / e.startLevel
	if confidence > 1 {
		confidence = 1
	}
	return Result{Speech: e.active, Confidence: confidence}, nil
}

// Reset clears the hysteresis state but keeps calibration.
func (e *Energy) Reset() {
	e.active = false
}

// rms returns the root mean square of the samples normalized to 0..1.
func rms(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s) / 32768.0
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}
