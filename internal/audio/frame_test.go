package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPCMByteRoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 12345}
	require.Equal(t, samples, PCMFromBytes(BytesFromPCM(samples)))
}

func TestPCMFromBytesDropsTrailingOddByte(t *testing.T) {
	require.Len(t, PCMFromBytes([]byte{0x01, 0x02, 0x03}), 1)
	require.Empty(t, PCMFromBytes([]byte{0x01}))
}

func TestFrameDuration(t *testing.T) {
	frame := Frame{PCM: make([]int16, 320), Rate: 16000}
	require.Equal(t, 20*time.Millisecond, frame.Duration())

	require.Equal(t, time.Duration(0), Frame{PCM: make([]int16, 320)}.Duration())
}

func TestDeviceErrorFormatting(t *testing.T) {
	err := &DeviceError{Code: DeviceDisconnected, Device: "elgato"}
	require.Contains(t, err.Error(), "disconnected")
	require.Contains(t, err.Error(), "elgato")
}
