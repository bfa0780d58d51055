package audio

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func testCaptureConfig() CaptureConfig {
	return CaptureConfig{SampleRateHz: 16000, ChunkMS: 20}
}

func TestCaptureConfigValidate(t *testing.T) {
	require.NoError(t, testCaptureConfig().validate())
	require.Equal(t, 640, testCaptureConfig().frameBytes())

	require.Error(t, CaptureConfig{SampleRateHz: 44100, ChunkMS: 20}.validate())
	require.Error(t, CaptureConfig{SampleRateHz: 16000, ChunkMS: 5}.validate())
	require.Error(t, CaptureConfig{SampleRateHz: 16000, ChunkMS: 1000}.validate())
}

func TestWriterFuncDelegatesWrite(t *testing.T) {
	called := false
	writer := writerFunc(func(b []byte) (int, error) {
		called = true
		require.Equal(t, []byte{1, 2, 3}, b)
		return len(b), nil
	})

	n, err := writer.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.True(t, called)
}

func TestPulseOnPCMFramingAndStopFlushesPending(t *testing.T) {
	source := &PulseSource{
		config: testCaptureConfig(),
		frames: make(chan Frame, FrameQueueSize),
		stopCh: make(chan struct{}),
	}

	frameBytes := source.config.frameBytes()
	input := make([]byte, frameBytes+110)
	for i := range input {
		input[i] = byte(i % 255)
	}

	n, err := source.onPCM(input)
	require.NoError(t, err)
	require.Equal(t, len(input), n)
	require.Equal(t, int64(len(input)), source.BytesCaptured())

	first := <-source.Frames()
	require.Len(t, first.PCM, frameBytes/2)
	require.Equal(t, 16000, first.Rate)

	require.NoError(t, source.Stop())

	remaining, ok := <-source.Frames()
	require.True(t, ok)
	require.Len(t, remaining.PCM, 55)

	_, ok = <-source.Frames()
	require.False(t, ok)
}

func TestPulseOnPCMDropsNewestWhenQueueFull(t *testing.T) {
	source := &PulseSource{
		config: testCaptureConfig(),
		frames: make(chan Frame, 1),
		stopCh: make(chan struct{}),
	}

	frameBytes := source.config.frameBytes()
	_, err := source.onPCM(make([]byte, 3*frameBytes))
	require.NoError(t, err)

	require.Equal(t, int64(2), source.Dropped(), "overflow frames dropped, capture never blocks")
	require.Len(t, source.Frames(), 1)
}

func TestPulseOnPCMReturnsEOFWhenStopped(t *testing.T) {
	source := &PulseSource{
		config: testCaptureConfig(),
		frames: make(chan Frame, 1),
		stopCh: make(chan struct{}),
	}
	close(source.stopCh)

	n, err := source.onPCM([]byte{1, 2, 3})
	require.Equal(t, 0, n)
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, int64(0), source.BytesCaptured())
}

func TestPulseStopIsIdempotent(t *testing.T) {
	source := &PulseSource{
		device: Device{ID: "mic-1", Description: "Mic"},
		config: testCaptureConfig(),
		frames: make(chan Frame, 1),
		stopCh: make(chan struct{}),
	}
	require.Equal(t, "mic-1", source.Device().ID)

	require.NoError(t, source.Stop())
	require.NoError(t, source.Stop())
	_, ok := <-source.Frames()
	require.False(t, ok)
}
