// Package audio provides microphone capture behind a small interface pair
// (Context, CaptureDevice) with a PulseAudio backend on Linux and a malgo
// backend elsewhere, plus the PCM Sound type shared between synthesis and
// playback.
package audio

const (
	SampleRate = 16000
	Channels   = 1
)

// Sound is a mono 16-bit PCM clip, the currency between the synthesizer and
// the playback mixer. Rate is the clip's own sample rate; synthesized speech
// does not have to match the capture rate.
type Sound struct {
	Rate    int
	Samples []int16
}

// Duration in seconds.
func (s *Sound) Duration() float64 {
	if s == nil || s.Rate == 0 {
		return 0
	}
	return float64(len(s.Samples)) / float64(s.Rate)
}

type DataCallback func(data []byte, frameCount uint32)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	// Start begins delivering data to the callback. Starting an already
	// started device is a no-op: the listener starts and stops the device
	// around each capture attempt and must not stack streams.
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
	DeviceName() string
}

// FindDevice returns the capture device matching name, or nil (system
// default) when name is empty or unknown.
func FindDevice(ctx Context, name string) *DeviceInfo {
	if name == "" {
		return nil
	}
	devices, err := ctx.Devices()
	if err != nil {
		return nil
	}
	for i := range devices {
		if devices[i].Name == name {
			return &devices[i]
		}
	}
	return nil
}
