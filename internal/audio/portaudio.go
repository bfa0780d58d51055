package audio

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"
)

// PortAudioSource captures frames through PortAudio. It exists for setups
// without a Pulse server; selection by name matches on substring like the
// Pulse backend.
type PortAudioSource struct {
	device Device
	config CaptureConfig

	stream *portaudio.Stream
	buf    []int16

	frames chan Frame
	stopCh chan struct{}
	doneCh chan struct{}

	stopOnce sync.Once
	dropped  atomic.Int64
}

// StartPortAudio initializes PortAudio and starts a mono int16 input stream.
// An empty or "default" device name uses the default input device.
func StartPortAudio(ctx context.Context, deviceName string, config CaptureConfig) (*PortAudioSource, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}

	framesPerBuffer := config.SampleRateHz * config.ChunkMS / 1000
	s := &PortAudioSource{
		config: config,
		buf:    make([]int16, framesPerBuffer),
		frames: make(chan Frame, FrameQueueSize),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	stream, device, err := openPortAudioStream(deviceName, config, s.buf)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	s.stream = stream
	s.device = device

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, &DeviceError{Code: DeviceBusy, Device: device.ID, Err: fmt.Errorf("start stream: %w", err)}
	}

	go s.captureLoop()
	go func() {
		<-ctx.Done()
		_ = s.Stop()
	}()

	return s, nil
}

func openPortAudioStream(deviceName string, config CaptureConfig, buf []int16) (*portaudio.Stream, Device, error) {
	name := strings.TrimSpace(strings.ToLower(deviceName))
	if name == "" || name == "default" {
		info, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, Device{}, &DeviceError{Code: DeviceNotFound, Device: "default", Err: err}
		}
		stream, err := portaudio.OpenDefaultStream(1, 0, float64(config.SampleRateHz), len(buf), buf)
		if err != nil {
			return nil, Device{}, &DeviceError{Code: DeviceBusy, Device: info.Name, Err: err}
		}
		return stream, Device{ID: info.Name, Description: info.Name, Available: true, Default: true}, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, Device{}, fmt.Errorf("list portaudio devices: %w", err)
	}

	var selected *portaudio.DeviceInfo
	for _, info := range devices {
		if info.MaxInputChannels < 1 {
			continue
		}
		if strings.Contains(strings.ToLower(info.Name), name) {
			selected = info
			break
		}
	}
	if selected == nil {
		return nil, Device{}, &DeviceError{Code: DeviceNotFound, Device: deviceName, Err: fmt.Errorf("no input device matches %q", deviceName)}
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   selected,
			Channels: 1,
			Latency:  selected.DefaultLowInputLatency,
		},
		SampleRate:      float64(config.SampleRateHz),
		FramesPerBuffer: len(buf),
	}
	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return nil, Device{}, &DeviceError{Code: DeviceBusy, Device: selected.Name, Err: err}
	}
	return stream, Device{ID: selected.Name, Description: selected.Name, Available: true}, nil
}

// Device returns capture metadata for logging and diagnostics.
func (s *PortAudioSource) Device() Device {
	return s.device
}

// Frames returns the capture stream. The channel closes after Stop.
func (s *PortAudioSource) Frames() <-chan Frame {
	return s.frames
}

// Dropped reports frames discarded because the queue was full.
func (s *PortAudioSource) Dropped() int64 {
	return s.dropped.Load()
}

// Stop halts the stream and closes Frames exactly once.
func (s *PortAudioSource) Stop() error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		// Abort interrupts a blocked Read so the capture loop can exit.
		_ = s.stream.Abort()
		<-s.doneCh
		s.stream.Close()
		portaudio.Terminate()
		close(s.frames)
	})
	return nil
}

// captureLoop reads buffers until stopped. Read errors end the loop; the
// consumer sees the closed channel and drives reconnection.
func (s *PortAudioSource) captureLoop() {
	defer close(s.doneCh)
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		if err := s.stream.Read(); err != nil {
			return
		}

		pcm := make([]int16, len(s.buf))
		copy(pcm, s.buf)
		select {
		case s.frames <- Frame{PCM: pcm, Rate: s.config.SampleRateHz, Time: time.Now()}:
		default:
			s.dropped.Add(1)
		}
	}
}
