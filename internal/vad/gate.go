package vad

import (
	"time"

	"github.com/voicekey-io/voicekey/internal/audio"
)

// DefaultMinSpeech is how much continuous speech must accumulate before the
// gate opens.
const DefaultMinSpeech = 200 * time.Millisecond

// Event is the gate's per-frame outcome.
type Event struct {
	Result Result
	// Active reports the smoothed gate state.
	Active bool
	// Onset is true on the frame that opens the gate.
	Onset bool
	// Offset is true on the frame that closes it.
	Offset bool
}

// Gate smooths a raw detector with a minimum-speech-duration requirement so
// a single noisy frame cannot open the audio path.
type Gate struct {
	detector  Detector
	minSpeech time.Duration

	accumulated time.Duration
	active      bool
}

func NewGate(detector Detector, minSpeech time.Duration) *Gate {
	if minSpeech <= 0 {
		minSpeech = DefaultMinSpeech
	}
	return &Gate{detector: detector, minSpeech: minSpeech}
}

// Process classifies one frame and updates the gate.
func (g *Gate) Process(frame audio.Frame) (Event, error) {
	result, err := g.detector.Classify(frame)
	if err != nil {
		return Event{}, err
	}

	event := Event{Result: result}
	if result.Speech {
		g.accumulated += frame.Duration()
		if !g.active && g.accumulated >= g.minSpeech {
			g.active = true
			event.Onset = true
		}
	} else {
		g.accumulated = 0
		if g.active {
			g.active = false
			event.Offset = true
		}
	}
	event.Active = g.active
	return event, nil
}

// Reset clears the gate and the underlying detector.
func (g *Gate) Reset() {
	g.accumulated = 0
	g.active = false
	g.detector.Reset()
}
