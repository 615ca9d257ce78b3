//go:build !linux

package mixer

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"vigil/audio"
)

type malgoMixer struct {
	ctx      *malgo.AllocatedContext
	channels map[Purpose]*malgoChannel
}

// New initializes a malgo context and allocates one playback channel per
// purpose. Volume is 0..1 and applied per sample.
func New(volume float64) (Mixer, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, err
	}
	m := &malgoMixer{
		ctx:      ctx,
		channels: make(map[Purpose]*malgoChannel, len(Purposes)),
	}
	for _, p := range Purposes {
		m.channels[p] = &malgoChannel{ctx: ctx, volume: volume}
	}
	return m, nil
}

func (m *malgoMixer) Channel(p Purpose) Channel { return m.channels[p] }

func (m *malgoMixer) Idle() bool {
	for _, ch := range m.channels {
		if ch.IsBusy() {
			return false
		}
	}
	return true
}

func (m *malgoMixer) StopAll() {
	for _, ch := range m.channels {
		ch.Stop()
	}
}

func (m *malgoMixer) Close() {
	m.StopAll()
	m.ctx.Uninit()
	m.ctx.Free()
}

type malgoChannel struct {
	ctx    *malgo.AllocatedContext
	volume float64

	mu   sync.Mutex
	stop chan struct{}
	busy atomic.Bool
}

func (c *malgoChannel) Play(s *audio.Sound, loop bool) {
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

func (c *malgoChannel) Stop() {
	c.mu.Lock()
	c.stopLocked()
	c.mu.Unlock()
}

func (c *malgoChannel) stopLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

func (c *malgoChannel) IsBusy() bool { return c.busy.Load() }

func (c *malgoChannel) stream(s *audio.Sound, loop bool, stop chan struct{}) {
	defer c.busy.Store(false)

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatS16
	cfg.Playback.Channels = 1
	cfg.SampleRate = uint32(s.Rate)

	pos := 0
	finished := make(chan struct{})
	var finishOnce sync.Once

	callbacks := malgo.DeviceCallbacks{
		Data: func(out, _ []byte, frames uint32) {
			for i := 0; i < int(frames); i++ {
				var sample int16
				if pos >= len(s.Samples) && loop {
					pos = 0
				}
				if pos < len(s.Samples) {
					sample = int16(float64(s.Samples[pos]) * c.volume)
					pos++
				} else {
					finishOnce.Do(func() { close(finished) })
				}
				binary.LittleEndian.PutUint16(out[i*2:], uint16(sample))
			}
		},
	}

	dev, err := malgo.InitDevice(c.ctx.Context, cfg, callbacks)
	if err != nil {
		return
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		return
	}
	select {
	case <-finished:
	case <-stop:
	}
	dev.Uninit()
}
