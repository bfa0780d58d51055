package asr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/voicekey-io/voicekey/internal/audio"
)

// StreamConfig holds the streaming recognizer endpoint settings.
type StreamConfig struct {
	URL          string
	Model        string
	Language     string
	SampleRateHz int
}

// StreamClient opens websocket sessions against the streaming recognizer.
type StreamClient struct {
	config StreamConfig
}

func NewStreamClient(config StreamConfig) (*StreamClient, error) {
	u, err := url.Parse(config.URL)
	if err != nil {
		return nil, fmt.Errorf("parse recognizer url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("recognizer url %q must use ws or wss", config.URL)
	}
	return &StreamClient{config: config}, nil
}

// OpenStream dials the recognizer and starts the read/write loops.
func (c *StreamClient) OpenStream(ctx context.Context) (Session, error) {
	u, _ := url.Parse(c.config.URL)
	q := u.Query()
	if c.config.Model != "" {
		q.Set("model", c.config.Model)
	}
	if c.config.Language != "" {
		q.Set("language", c.config.Language)
	}
	q.Set("sample_rate", strconv.Itoa(c.config.SampleRateHz))
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, &RecognitionError{Code: ErrUnavailable, Err: fmt.Errorf("dial recognizer: %w", err)}
	}

	session := &streamSession{
		conn:      conn,
		events:    make(chan Transcript, 64),
		audio:     make(chan []byte, 32),
		done:      make(chan struct{}),
		stop:      make(chan struct{}),
		utterance: uuid.New(),
	}

	session.wg.Add(2)
	go session.readLoop()
	go session.writeLoop()
	go func() {
		session.wg.Wait()
		close(session.events)
		close(session.done)
		_ = conn.Close()
	}()

	go func() {
		<-ctx.Done()
		_ = session.Close()
	}()

	return session, nil
}

type streamSession struct {
	conn *websocket.Conn

	events chan Transcript
	audio  chan []byte
	done   chan struct{}
	// stop releases a blocked final emit when the session is closed.
	stop chan struct{}

	wg sync.WaitGroup

	errMu sync.Mutex
	err   error

	utterance uuid.UUID

	closeSendOnce sync.Once
	closeOnce     sync.Once
	sendMu        sync.RWMutex
	sendClosed    bool
}

// serverEvent is one message from the recognizer.
type serverEvent struct {
	Type       string  `json:"type"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	IsFinal    bool    `json:"is_final"`
	Language   string  `json:"language"`
	Message    string  `json:"message"`
}

func (s *streamSession) Send(frame audio.Frame) error {
	if len(frame.PCM) == 0 {
		return nil
	}

	s.sendMu.RLock()
	closed := s.sendClosed
	s.sendMu.RUnlock()
	if closed {
		return errors.New("audio stream is already closed")
	}

	chunk := audio.BytesFromPCM(frame.PCM)
	select {
	case s.audio <- chunk:
		return nil
	case <-s.done:
		if err := s.Err(); err != nil {
			return err
		}
		return errors.New("session closed")
	}
}

func (s *streamSession) CloseSend() error {
	s.closeSendOnce.Do(func() {
		s.sendMu.Lock()
		s.sendClosed = true
		close(s.audio)
		s.sendMu.Unlock()
	})
	return nil
}

func (s *streamSession) Events() <-chan Transcript {
	return s.events
}

func (s *streamSession) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		_ = s.CloseSend()
		_ = s.conn.Close()
	})
	<-s.done
	return s.Err()
}

func (s *streamSession) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *streamSession) setErr(err error) {
	if err == nil {
		return
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return
	}

	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *streamSession) writeLoop() {
	defer s.wg.Done()

	for chunk := range s.audio {
		if err := s.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
			s.setErr(fmt.Errorf("send audio: %w", err))
			return
		}
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"close_stream"}`)); err != nil {
		s.setErr(fmt.Errorf("close stream: %w", err))
	}
}

func (s *streamSession) readLoop() {
	defer s.wg.Done()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.setErr(fmt.Errorf("read recognizer event: %w", err))
			return
		}

		var event serverEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			continue
		}

		if strings.EqualFold(event.Type, "error") {
			message := strings.TrimSpace(event.Message)
			if message == "" {
				message = "recognizer returned an unknown error"
			}
			s.setErr(&RecognitionError{Code: ErrRejected, Err: errors.New(message)})
			return
		}

		text := strings.TrimSpace(event.Text)
		if text == "" {
			continue
		}

		s.emit(Transcript{
			Text:       text,
			Confidence: event.Confidence,
			Final:      event.IsFinal,
			Language:   event.Language,
			Utterance:  s.utterance,
		})

		// A final ends the utterance; partials that follow belong to a new one.
		if event.IsFinal {
			s.utterance = uuid.New()
		}
	}
}

// emit hands a transcript to the consumer. Partials are advisory and may be
// dropped when the consumer lags, but a final is the utterance's result, so
// the read loop waits for buffer space unless the session is closing.
func (s *streamSession) emit(t Transcript) {
	if !t.Final {
		select {
		case s.events <- t:
		default:
		}
		return
	}

	select {
	case s.events <- t:
	case <-s.stop:
	}
}
