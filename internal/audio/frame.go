// Package audio handles device discovery, selection, and PCM capture streams.
package audio

import (
	"encoding/binary"
	"fmt"
	"time"
)

// FrameQueueSize bounds the capture-to-pipeline channel. A full queue drops
// the incoming frame instead of blocking the capture callback.
const FrameQueueSize = 32

// ValidSampleRates are the rates the VAD engines accept.
var ValidSampleRates = map[int]bool{8000: true, 16000: true, 32000: true, 48000: true}

// Frame is one fixed-duration chunk of mono PCM.
type Frame struct {
	PCM  []int16
	Rate int
	Time time.Time
}

// Duration returns the frame's audio length.
func (f Frame) Duration() time.Duration {
	if f.Rate <= 0 {
		return 0
	}
	return time.Duration(len(f.PCM)) * time.Second / time.Duration(f.Rate)
}

// Source is a capture backend. Frames closes after Stop returns; Dropped
// reports frames discarded on backpressure.
type Source interface {
	Frames() <-chan Frame
	Stop() error
	Dropped() int64
	Device() Device
}

// DeviceErrorCode classifies capture device failures.
type DeviceErrorCode string

const (
	DeviceNotFound     DeviceErrorCode = "not_found"
	DeviceBusy         DeviceErrorCode = "busy"
	DeviceDisconnected DeviceErrorCode = "disconnected"
)

// DeviceError is a capture failure tied to a specific device.
type DeviceError struct {
	Code   DeviceErrorCode
	Device string
	Err    error
}

func (e *DeviceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("audio device %q: %s", e.Device, e.Code)
	}
	return fmt.Sprintf("audio device %q: %s: %v", e.Device, e.Code, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// PCMFromBytes decodes little-endian s16 bytes. A trailing odd byte is
// dropped.
func PCMFromBytes(b []byte) []int16 {
	samples := make([]int16, len(b)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(b[2*i:]))
	}
	return samples
}

// BytesFromPCM encodes samples as little-endian s16 bytes.
func BytesFromPCM(samples []int16) []byte {
	b := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(b[2*i:], uint16(s))
	}
	return b
}
