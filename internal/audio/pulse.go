package audio

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// CaptureConfig sets the stream format for a capture backend.
type CaptureConfig struct {
	SampleRateHz int
	ChunkMS      int
}

// frameBytes returns the byte length of one frame at the configured format.
func (c CaptureConfig) frameBytes() int {
	return c.SampleRateHz * c.ChunkMS / 1000 * 2
}

func (c CaptureConfig) validate() error {
	if !ValidSampleRates[c.SampleRateHz] {
		return fmt.Errorf("unsupported sample rate %d", c.SampleRateHz)
	}
	if c.ChunkMS < 10 || c.ChunkMS > 500 {
		return fmt.Errorf("chunk duration %dms out of range", c.ChunkMS)
	}
	return nil
}

// PulseSource streams fixed-duration PCM frames from one selected Pulse
// source. Frames are dropped, not queued unbounded, when the consumer lags.
type PulseSource struct {
	device Device
	config CaptureConfig

	client *pulse.Client
	stream *pulse.RecordStream

	frames chan Frame
	stopCh chan struct{}

	mu      sync.Mutex
	pending []byte
	stopped bool

	inflight sync.WaitGroup
	dropped  atomic.Int64
	bytes    atomic.Int64
}

// StartPulse creates and starts a mono s16 record stream on the selected
// device.
func StartPulse(ctx context.Context, selected Device, config CaptureConfig) (*PulseSource, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	client, err := newPulseClient()
	if err != nil {
		return nil, &DeviceError{Code: DeviceNotFound, Device: selected.ID, Err: err}
	}

	source, err := client.SourceByID(selected.ID)
	if err != nil {
		client.Close()
		return nil, &DeviceError{Code: DeviceNotFound, Device: selected.ID, Err: fmt.Errorf("resolve source: %w", err)}
	}

	s := &PulseSource{
		device: selected,
		config: config,
		frames: make(chan Frame, FrameQueueSize),
		stopCh: make(chan struct{}),
	}

	writer := pulse.NewWriter(writerFunc(s.onPCM), pulseproto.FormatInt16LE)
	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(uint32(config.SampleRateHz)),
		pulse.RecordBufferFragmentSize(uint32(config.frameBytes())),
		pulse.RecordMediaName("voicekey capture"),
	)
	if err != nil {
		client.Close()
		return nil, &DeviceError{Code: DeviceBusy, Device: selected.ID, Err: fmt.Errorf("create record stream: %w", err)}
	}

	s.client = client
	s.stream = stream
	stream.Start()

	go func() {
		<-ctx.Done()
		_ = s.Stop()
	}()

	return s, nil
}

// Device returns capture metadata for logging and diagnostics.
func (s *PulseSource) Device() Device {
	return s.device
}

// Frames returns the capture stream. The channel closes after Stop.
func (s *PulseSource) Frames() <-chan Frame {
	return s.frames
}

// Dropped reports frames discarded because the queue was full.
func (s *PulseSource) Dropped() int64 {
	return s.dropped.Load()
}

// BytesCaptured reports total bytes accepted from Pulse.
func (s *PulseSource) BytesCaptured() int64 {
	return s.bytes.Load()
}

// Stop halts the stream, flushes residual PCM, and closes Frames exactly
// once.
func (s *PulseSource) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	close(s.stopCh)
	s.mu.Unlock()

	if s.stream != nil {
		s.stream.Stop()
		s.stream.Close()
	}
	if s.client != nil {
		s.client.Close()
	}

	s.inflight.Wait()

	s.mu.Lock()
	pending := append([]byte(nil), s.pending...)
	s.pending = nil
	s.mu.Unlock()

	if len(pending) > 0 {
		s.offer(Frame{PCM: PCMFromBytes(pending), Rate: s.config.SampleRateHz, Time: time.Now()})
	}

	close(s.frames)
	return nil
}

// offer enqueues one frame, dropping it when the queue is full.
func (s *PulseSource) offer(frame Frame) {
	select {
	case s.frames <- frame:
	default:
		s.dropped.Add(1)
	}
}

// onPCM receives raw Pulse data and emits fixed-size frames.
func (s *PulseSource) onPCM(buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}

	select {
	case <-s.stopCh:
		return 0, io.EOF
	default:
	}

	frameBytes := s.config.frameBytes()

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return 0, io.EOF
	}
	// Guard Add under the same mutex as s.stopped to avoid Add/Wait races.
	s.inflight.Add(1)

	s.pending = append(s.pending, buffer...)
	chunks := make([][]byte, 0, len(s.pending)/frameBytes)
	for len(s.pending) >= frameBytes {
		chunk := make([]byte, frameBytes)
		copy(chunk, s.pending[:frameBytes])
		s.pending = s.pending[frameBytes:]
		chunks = append(chunks, chunk)
	}
	s.mu.Unlock()
	defer s.inflight.Done()

	s.bytes.Add(int64(len(buffer)))

	now := time.Now()
	for _, chunk := range chunks {
		select {
		case <-s.stopCh:
			return 0, io.EOF
		default:
		}
		s.offer(Frame{PCM: PCMFromBytes(chunk), Rate: s.config.SampleRateHz, Time: now})
	}

	return len(buffer), nil
}

// writerFunc adapts a function to io.Writer for pulse.NewWriter.
type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}
