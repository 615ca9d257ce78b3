package listener

import (
	"context"
	"sync"
	"time"
)

// FakeResult is one scripted Listen outcome.
type FakeResult struct {
	Text string
	Err  error
}

// Fake plays back scripted Listen results; once the script runs out every
// call reports ErrNoSpeech after the full timeout, like a silent cabin.
type Fake struct {
	mu           sync.Mutex
	script       []FakeResult
	listens      int
	calibrations int

	// Delay is applied before each scripted result, honoring ctx.
	Delay time.Duration
}

func NewFake(script ...FakeResult) *Fake {
	return &Fake{script: script}
}

func (f *Fake) Calibrate(_ context.Context) {
	f.mu.Lock()
	f.calibrations++
	f.mu.Unlock()
}

func (f *Fake) Listen(ctx context.Context, timeout, _ time.Duration) (string, error) {
	f.mu.Lock()
	i := f.listens
	f.listens++
	delay := f.Delay
	var res FakeResult
	scripted := i < len(f.script)
	if scripted {
		res = f.script[i]
	}
	f.mu.Unlock()

	if !scripted {
		delay = timeout
		res = FakeResult{Err: ErrNoSpeech}
	}
	if delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}
	return res.Text, res.Err
}

func (f *Fake) Listens() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listens
}

func (f *Fake) Calibrations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calibrations
}
