//go:build linux

package mixer

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"

	"vigil/audio"
)

type pulseMixer struct {
	client   *pulse.Client
	channels map[Purpose]*pulseChannel
}

// New connects to PulseAudio and allocates one playback channel per purpose.
// Volume is 0..1 and applied to every stream.
func New(volume float64) (Mixer, error) {
	c, err := pulse.NewClient()
	if err != nil {
		return nil, fmt.Errorf("pulse: %w", err)
	}
	m := &pulseMixer{
		client:   c,
		channels: make(map[Purpose]*pulseChannel, len(Purposes)),
	}
	for _, p := range Purposes {
		m.channels[p] = &pulseChannel{client: c, volume: volume}
	}
	return m, nil
}

func (m *pulseMixer) Channel(p Purpose) Channel { return m.channels[p] }

func (m *pulseMixer) Idle() bool {
	for _, ch := range m.channels {
		if ch.IsBusy() {
			return false
		}
	}
	return true
}

func (m *pulseMixer) StopAll() {
	for _, ch := range m.channels {
		ch.Stop()
	}
}

func (m *pulseMixer) Close() {
	m.StopAll()
	m.client.Close()
}

type pulseChannel struct {
	client *pulse.Client
	volume float64

	mu   sync.Mutex
	stop chan struct{}
	busy atomic.Bool
}

func (c *pulseChannel) Play(s *audio.Sound, loop bool) {
	if s == nil || len(s.Samples) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	stop := make(chan struct{})
	c.stop = stop
	c.busy.Store(true)
	go c.stream(s, loop, stop)
}

func (c *pulseChannel) Stop() {
	c.mu.Lock()
	c.stopLocked()
	c.mu.Unlock()
}

func (c *pulseChannel) stopLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

func (c *pulseChannel) IsBusy() bool { return c.busy.Load() }

func (c *pulseChannel) stream(s *audio.Sound, loop bool, stop chan struct{}) {
	defer c.busy.Store(false)

	pos := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		select {
		case <-stop:
			return 0, pulse.EndOfData
		default:
		}
		if pos >= len(s.Samples) {
			if !loop {
				return 0, pulse.EndOfData
			}
			pos = 0
		}
		n := copy(buf, s.Samples[pos:])
		pos += n
		return n, nil
	})

	vol := uint32(float64(proto.VolumeNorm) * c.volume)
	stream, err := c.client.NewPlayback(reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(s.Rate),
		pulse.PlaybackLatency(0.1),
		pulse.PlaybackRawOption(func(p *proto.CreatePlaybackStream) {
			p.ChannelVolumes = proto.ChannelVolumes{vol}
		}),
	)
	if err != nil {
		return
	}
	stream.Start()

	drained := make(chan struct{})
	go func() {
		stream.Drain()
		close(drained)
	}()
	select {
	case <-drained:
	case <-stop:
	}
	stream.Stop()
	stream.Close()
}
