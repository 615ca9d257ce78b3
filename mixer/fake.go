package mixer

import (
	"sync"

	"vigil/audio"
)

// FakeMixer records channel activity instead of touching an audio backend.
// Tests script busy state per channel with SetBusy.
type FakeMixer struct {
	channels map[Purpose]*FakeChannel
}

func NewFake() *FakeMixer {
	m := &FakeMixer{channels: make(map[Purpose]*FakeChannel, len(Purposes))}
	for _, p := range Purposes {
		m.channels[p] = &FakeChannel{}
	}
	return m
}

func (m *FakeMixer) Channel(p Purpose) Channel { return m.channels[p] }

// Fake returns the concrete fake channel for assertions.
func (m *FakeMixer) Fake(p Purpose) *FakeChannel { return m.channels[p] }

func (m *FakeMixer) Idle() bool {
	for _, ch := range m.channels {
		if ch.IsBusy() {
			return false
		}
	}
	return true
}

func (m *FakeMixer) StopAll() {
	for _, ch := range m.channels {
		ch.Stop()
	}
}

func (m *FakeMixer) Close() { m.StopAll() }

type PlayCall struct {
	Sound *audio.Sound
	Loop  bool
}

type FakeChannel struct {
	mu    sync.Mutex
	plays []PlayCall
	stops int
	busy  bool
}

func (c *FakeChannel) Play(s *audio.Sound, loop bool) {
	c.mu.Lock()
	c.plays = append(c.plays, PlayCall{Sound: s, Loop: loop})
	c.busy = true
	c.mu.Unlock()
}

func (c *FakeChannel) Stop() {
	c.mu.Lock()
	c.stops++
	c.busy = false
	c.mu.Unlock()
}

func (c *FakeChannel) IsBusy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// SetBusy scripts the busy flag without recording a play.
func (c *FakeChannel) SetBusy(b bool) {
	c.mu.Lock()
	c.busy = b
	c.mu.Unlock()
}

func (c *FakeChannel) Plays() []PlayCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]PlayCall, len(c.plays))
	copy(out, c.plays)
	return out
}

func (c *FakeChannel) Stops() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stops
}
