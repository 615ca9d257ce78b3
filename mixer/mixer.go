// Package mixer plays synthesized sounds on purpose-keyed channels. Channel
// assignment is fixed for the process lifetime: one channel per alert
// purpose, so concurrent alerts never fight over a stream.
package mixer

import "vigil/audio"

type Purpose string

const (
	Normal  Purpose = "normal"
	Extreme Purpose = "extreme"
	NoFace  Purpose = "no_face"
	Reply   Purpose = "verifier_reply"
)

// Purposes lists every channel a mixer allocates, in a stable order.
var Purposes = []Purpose{Normal, Extreme, NoFace, Reply}

type Channel interface {
	// Play starts the sound on this channel, replacing anything already
	// playing on it. With loop set the sound repeats until Stop.
	Play(s *audio.Sound, loop bool)
	Stop()
	IsBusy() bool
}

type Mixer interface {
	Channel(p Purpose) Channel
	// Idle reports whether every channel has finished playing.
	Idle() bool
	StopAll()
	Close()
}
