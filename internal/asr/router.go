package asr

import (
	"context"
	"errors"
	"log/slog"
)

// Mode selects which recognizer backends the router may use.
type Mode string

const (
	// ModeLocal uses only the streaming recognizer.
	ModeLocal Mode = "local_only"
	// ModeHybrid streams locally and falls back to the batch endpoint per
	// utterance when the stream cannot be opened.
	ModeHybrid Mode = "hybrid"
	// ModeCloud uses only the batch endpoint.
	ModeCloud Mode = "cloud_primary"
)

// ValidMode reports whether mode is one of the recognizer routing modes.
func ValidMode(mode Mode) bool {
	switch mode {
	case ModeLocal, ModeHybrid, ModeCloud:
		return true
	}
	return false
}

// Router picks between the streaming and batch backends according to the
// configured mode and records when a fallback was used.
type Router struct {
	mode   Mode
	stream Recognizer
	batch  BatchRecognizer
	logger *slog.Logger

	fallbackUsed   bool
	fallbackReason string
}

func NewRouter(mode Mode, stream Recognizer, batch BatchRecognizer, logger *slog.Logger) (*Router, error) {
	if !ValidMode(mode) {
		return nil, errors.New("unknown recognizer mode " + string(mode))
	}
	if (mode == ModeLocal || mode == ModeHybrid) && stream == nil {
		return nil, errors.New("recognizer mode " + string(mode) + " requires a streaming endpoint")
	}
	if (mode == ModeCloud || mode == ModeHybrid) && batch == nil {
		return nil, errors.New("recognizer mode " + string(mode) + " requires a batch endpoint")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{mode: mode, stream: stream, batch: batch, logger: logger}, nil
}

// Mode returns the configured routing mode.
func (r *Router) Mode() Mode {
	return r.mode
}

// Streaming reports whether the runtime should run a streaming session.
func (r *Router) Streaming() bool {
	return r.mode != ModeCloud
}

// OpenStream opens a streaming session in local and hybrid modes.
func (r *Router) OpenStream(ctx context.Context) (Session, error) {
	if !r.Streaming() {
		return nil, &RecognitionError{Code: ErrRejected, Err: errors.New("streaming disabled in cloud_primary mode")}
	}
	return r.stream.OpenStream(ctx)
}

// TranscribeUtterance transcribes a complete utterance through the batch
// path. In hybrid mode this is the fallback when streaming failed; err is
// the streaming failure being recovered from, recorded as the reason.
func (r *Router) TranscribeUtterance(ctx context.Context, pcm []int16, rate int, streamErr error) (Transcript, error) {
	switch r.mode {
	case ModeCloud:
		return r.batch.Transcribe(ctx, pcm, rate)
	case ModeHybrid:
		r.fallbackUsed = true
		r.fallbackReason = "stream_unavailable"
		if streamErr != nil {
			r.fallbackReason = streamErr.Error()
		}
		r.logger.Warn("recognizer falling back to batch endpoint", "reason", r.fallbackReason)
		return r.batch.Transcribe(ctx, pcm, rate)
	default:
		if streamErr != nil {
			return Transcript{}, streamErr
		}
		return Transcript{}, &RecognitionError{Code: ErrUnavailable, Err: errors.New("no batch recognizer in local_only mode")}
	}
}

// Fallback reports whether the batch fallback fired and why.
func (r *Router) Fallback() (bool, string) {
	return r.fallbackUsed, r.fallbackReason
}
