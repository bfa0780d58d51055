// Package asr connects the runtime to speech recognizers: a websocket
// streaming client for the local engine and an HTTPS batch client for
// OpenAI-compatible cloud endpoints, with a router that picks between them.
package asr

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/voicekey-io/voicekey/internal/audio"
)

// Transcript is one recognizer result. Partials are advisory; only finals
// carry dispatch weight.
type Transcript struct {
	Text       string
	Confidence float64
	Final      bool
	Language   string
	Utterance  uuid.UUID
}

// Session is one live streaming recognition stream. Events closes when the
// stream ends; Err reports the terminal error, if any, after that.
type Session interface {
	Send(frame audio.Frame) error
	Events() <-chan Transcript
	CloseSend() error
	Close() error
	Err() error
}

// Recognizer opens streaming sessions.
type Recognizer interface {
	OpenStream(ctx context.Context) (Session, error)
}

// BatchRecognizer transcribes one complete utterance at a time.
type BatchRecognizer interface {
	Transcribe(ctx context.Context, pcm []int16, rate int) (Transcript, error)
}

// ErrorCode classifies recognition failures.
type ErrorCode string

const (
	ErrUnavailable ErrorCode = "unavailable"
	ErrTimeout     ErrorCode = "timeout"
	ErrRejected    ErrorCode = "rejected"
)

// RecognitionError is a recognizer failure with its classification.
type RecognitionError struct {
	Code ErrorCode
	Err  error
}

func (e *RecognitionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("recognition failed: %s", e.Code)
	}
	return fmt.Sprintf("recognition failed (%s): %v", e.Code, e.Err)
}

func (e *RecognitionError) Unwrap() error {
	return e.Err
}
