package asr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voicekey-io/voicekey/internal/audio"
)

// APIKeyEnv is the environment variable holding the cloud recognizer key.
// Keys never live in config files.
const APIKeyEnv = "VOICEKEY_API_KEY"

// BatchConfig holds the OpenAI-compatible endpoint settings.
type BatchConfig struct {
	URL      string
	Model    string
	Language string
	Timeout  time.Duration
}

// BatchClient posts complete utterances to an OpenAI-compatible JSON
// endpoint. Transport is HTTPS only; plain HTTP is accepted solely for
// loopback addresses so a local sidecar can serve the same API.
type BatchClient struct {
	config BatchConfig
	apiKey string
	client *http.Client
}

func NewBatchClient(config BatchConfig) (*BatchClient, error) {
	u, err := url.Parse(config.URL)
	if err != nil {
		return nil, fmt.Errorf("parse batch recognizer url: %w", err)
	}
	switch u.Scheme {
	case "https":
	case "http":
		if !isLoopback(u.Hostname()) {
			return nil, fmt.Errorf("batch recognizer url %q must use https", config.URL)
		}
	default:
		return nil, fmt.Errorf("batch recognizer url %q must use https", config.URL)
	}

	apiKey := strings.TrimSpace(os.Getenv(APIKeyEnv))
	if u.Scheme == "https" && apiKey == "" {
		return nil, fmt.Errorf("%s is not set; the cloud recognizer requires an API key", APIKeyEnv)
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &BatchClient{
		config: config,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}, nil
}

type batchRequest struct {
	Model        string `json:"model,omitempty"`
	Language     string `json:"language,omitempty"`
	Encoding     string `json:"encoding"`
	SampleRateHz int    `json:"sample_rate_hz"`
	AudioBase64  string `json:"audio_base64"`
}

type batchResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language"`
}

// Transcribe posts one utterance and returns its final transcript.
func (c *BatchClient) Transcribe(ctx context.Context, pcm []int16, rate int) (Transcript, error) {
	payload := batchRequest{
		Model:        c.config.Model,
		Language:     c.config.Language,
		Encoding:     "pcm_s16le",
		SampleRateHz: rate,
		AudioBase64:  base64.StdEncoding.EncodeToString(audio.BytesFromPCM(pcm)),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Transcript{}, fmt.Errorf("encode batch request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return Transcript{}, fmt.Errorf("build batch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		code := ErrUnavailable
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			code = ErrTimeout
		}
		return Transcript{}, &RecognitionError{Code: code, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Transcript{}, &RecognitionError{
			Code: ErrRejected,
			Err:  fmt.Errorf("recognizer returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
		}
	}

	var decoded batchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Transcript{}, &RecognitionError{Code: ErrRejected, Err: fmt.Errorf("decode batch response: %w", err)}
	}

	return Transcript{
		Text:       strings.TrimSpace(decoded.Text),
		Confidence: decoded.Confidence,
		Final:      true,
		Language:   decoded.Language,
		Utterance:  uuid.New(),
	}, nil
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
