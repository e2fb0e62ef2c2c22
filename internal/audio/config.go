package audio

import (
	"errors"

	"github.com/gen2brain/malgo"
)

// DeviceConfig configures microphone capture.
type DeviceConfig struct {
	Format          malgo.FormatType
	CaptureChannels int
	SampleRate      int
	// DeviceName selects a capture device by name. Empty uses the system default.
	DeviceName string
	// BufferPackets is the capacity of the packet channel handed to consumers.
	BufferPackets int
}

// DefaultDeviceConfig returns 16kHz mono S16LE capture, the format both
// recognizers accept.
func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		Format:          malgo.FormatS16,
		CaptureChannels: DefaultChannels,
		SampleRate:      DefaultSampleRate,
		BufferPackets:   64,
	}
}

// Validate returns an error if the config is invalid.
func (c DeviceConfig) Validate() error {
	if c.Format != malgo.FormatS16 {
		return errors.New("only S16 sample format is supported")
	}

	if c.CaptureChannels != 1 {
		return errors.New("only mono capture is supported")
	}

	if c.SampleRate <= 0 {
		return errors.New("sample rate must be positive")
	}

	if c.BufferPackets <= 0 {
		return errors.New("buffer packets must be positive")
	}

	return nil
}
