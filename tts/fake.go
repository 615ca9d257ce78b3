package tts

import (
	"context"
	"sync"

	"vigil/audio"
)

// Fake synthesizes a short burst of silence and records every text it was
// asked for.
type Fake struct {
	// Err, when set, is returned from every Synthesize call.
	Err error
	// Samples controls the length of the fabricated clip.
	Samples int

	mu    sync.Mutex
	texts []string
}

func NewFake() *Fake {
	return &Fake{Samples: audio.SampleRate / 10}
}

func (f *Fake) Synthesize(ctx context.Context, text string) (*audio.Sound, error) {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return &audio.Sound{Rate: audio.SampleRate, Samples: make([]int16, f.Samples)}, nil
}

// Texts returns a copy of every text synthesized so far.
func (f *Fake) Texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.texts))
	copy(out, f.texts)
	return out
}
