package asr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/voicekey-io/voicekey/internal/audio"
)

var upgrader = websocket.Upgrader{}

// fakeRecognizer upgrades the connection and replies to every binary frame
// with a partial followed by a final.
func fakeRecognizer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "16000", r.URL.Query().Get("sample_rate"))

		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		for {
			kind, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if kind == websocket.TextMessage && strings.Contains(string(payload), "close_stream") {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			_ = conn.WriteJSON(serverEvent{Type: "transcript", Text: "hel", Confidence: 0.4})
			_ = conn.WriteJSON(serverEvent{Type: "transcript", Text: "hello world", Confidence: 0.93, IsFinal: true})
		}
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func testFrame() audio.Frame {
	return audio.Frame{PCM: make([]int16, 320), Rate: 16000, Time: time.Now()}
}

func TestStreamClientValidatesScheme(t *testing.T) {
	_, err := NewStreamClient(StreamConfig{URL: "https://example.com"})
	require.ErrorContains(t, err, "ws or wss")

	_, err = NewStreamClient(StreamConfig{URL: "ws://127.0.0.1:2700"})
	require.NoError(t, err)
}

func TestStreamSessionRoundTrip(t *testing.T) {
	server := fakeRecognizer(t)
	defer server.Close()

	client, err := NewStreamClient(StreamConfig{URL: wsURL(server), SampleRateHz: 16000})
	require.NoError(t, err)

	session, err := client.OpenStream(context.Background())
	require.NoError(t, err)
	defer session.Close()

	require.NoError(t, session.Send(testFrame()))

	var got []Transcript
	deadline := time.After(3 * time.Second)
	for len(got) < 2 {
		select {
		case event, ok := <-session.Events():
			require.True(t, ok, "stream ended early: %v", session.Err())
			got = append(got, event)
		case <-deadline:
			t.Fatal("timed out waiting for transcripts")
		}
	}

	require.False(t, got[0].Final)
	require.Equal(t, "hel", got[0].Text)
	require.True(t, got[1].Final)
	require.Equal(t, "hello world", got[1].Text)
	require.InDelta(t, 0.93, got[1].Confidence, 1e-9)
	require.Equal(t, got[0].Utterance, got[1].Utterance, "partial and final share an utterance id")

	require.NoError(t, session.CloseSend())
	require.NoError(t, session.Close())
}

func TestStreamSessionSendAfterCloseSend(t *testing.T) {
	server := fakeRecognizer(t)
	defer server.Close()

	client, err := NewStreamClient(StreamConfig{URL: wsURL(server), SampleRateHz: 16000})
	require.NoError(t, err)

	session, err := client.OpenStream(context.Background())
	require.NoError(t, err)
	defer session.Close()

	require.NoError(t, session.CloseSend())
	require.Error(t, session.Send(testFrame()))
}

func TestStreamSessionServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		_ = conn.WriteJSON(serverEvent{Type: "error", Message: "model not loaded"})
	}))
	defer server.Close()

	client, err := NewStreamClient(StreamConfig{URL: wsURL(server), SampleRateHz: 16000})
	require.NoError(t, err)

	session, err := client.OpenStream(context.Background())
	require.NoError(t, err)

	for range session.Events() {
	}

	err = session.Close()
	require.Error(t, err)
	var recErr *RecognitionError
	require.ErrorAs(t, err, &recErr)
	require.Equal(t, ErrRejected, recErr.Code)
	require.ErrorContains(t, err, "model not loaded")
}

func TestEmitKeepsFinalsWhenConsumerLags(t *testing.T) {
	s := &streamSession{events: make(chan Transcript, 1), stop: make(chan struct{})}

	// Fill the buffer, then show a lagging consumer loses only the partial.
	s.emit(Transcript{Text: "buffered partial"})
	s.emit(Transcript{Text: "dropped partial"})

	delivered := make(chan struct{})
	go func() {
		s.emit(Transcript{Text: "final result", Final: true})
		close(delivered)
	}()

	select {
	case <-delivered:
		t.Fatal("final emitted without buffer space")
	case <-time.After(50 * time.Millisecond):
	}

	require.Equal(t, "buffered partial", (<-s.events).Text)
	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("final never delivered after consumer drained")
	}
	require.Equal(t, "final result", (<-s.events).Text)
}

func TestEmitFinalReleasedByClose(t *testing.T) {
	s := &streamSession{events: make(chan Transcript, 1), stop: make(chan struct{})}
	s.emit(Transcript{Text: "buffered partial"})

	close(s.stop)

	done := make(chan struct{})
	go func() {
		s.emit(Transcript{Text: "late final", Final: true})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit stayed blocked after close")
	}
}

func TestOpenStreamUnreachable(t *testing.T) {
	client, err := NewStreamClient(StreamConfig{URL: "ws://127.0.0.1:1", SampleRateHz: 16000})
	require.NoError(t, err)

	_, err = client.OpenStream(context.Background())
	var recErr *RecognitionError
	require.ErrorAs(t, err, &recErr)
	require.Equal(t, ErrUnavailable, recErr.Code)
}
