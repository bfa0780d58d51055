package asr

import (
	"math"
	"sync/atomic"
)

// ConfidenceFilter drops low-confidence finals before they reach the parser.
// Partials pass untouched: they only feed activity tracking and are never
// dispatched.
type ConfidenceFilter struct {
	// threshold holds float64 bits so config reloads can retune a filter
	// that is concurrently accepting transcripts.
	threshold atomic.Uint64
	dropped   atomic.Int64
	onDrop    func(Transcript)
}

// NewConfidenceFilter builds a filter. onDrop may be nil; when set it fires
// for every rejected final.
func NewConfidenceFilter(threshold float64, onDrop func(Transcript)) *ConfidenceFilter {
	f := &ConfidenceFilter{onDrop: onDrop}
	f.SetThreshold(threshold)
	return f
}

// SetThreshold retunes the filter, clamping to [0, 1]. Drop counts persist.
func (f *ConfidenceFilter) SetThreshold(threshold float64) {
	if threshold < 0 {
		threshold = 0
	}
	if threshold > 1 {
		threshold = 1
	}
	f.threshold.Store(math.Float64bits(threshold))
}

// Threshold reads the current cutoff.
func (f *ConfidenceFilter) Threshold() float64 {
	return math.Float64frombits(f.threshold.Load())
}

// Accept reports whether the transcript may proceed.
func (f *ConfidenceFilter) Accept(t Transcript) bool {
	if !t.Final {
		return true
	}
	if t.Confidence >= f.Threshold() {
		return true
	}
	f.dropped.Add(1)
	if f.onDrop != nil {
		f.onDrop(t)
	}
	return false
}

// Dropped reports how many finals were rejected.
func (f *ConfidenceFilter) Dropped() int64 {
	return f.dropped.Load()
}
