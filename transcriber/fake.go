package transcriber

import (
	"context"
	"sync"
)

// Fake returns scripted transcripts in order, then ErrNoSpeech forever.
type Fake struct {
	mu      sync.Mutex
	scripts []string
	errs    []error
	calls   int
}

func NewFake(scripts ...string) *Fake {
	return &Fake{scripts: scripts}
}

// FailWith makes the next call (after scripted transcripts run out in order)
// return err instead of ErrNoSpeech.
func (f *Fake) FailWith(err error) *Fake {
	f.mu.Lock()
	f.errs = append(f.errs, err)
	f.mu.Unlock()
	return f
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *Fake) Transcribe(_ context.Context, _ []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i < len(f.scripts) {
		return f.scripts[i], nil
	}
	if j := i - len(f.scripts); j < len(f.errs) {
		return "", f.errs[j]
	}
	return "", ErrNoSpeech
}
