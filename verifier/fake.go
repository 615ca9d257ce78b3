package verifier

import (
	"context"
	"sync"

	"vigil/detector"
)

// Fake returns scripted verdicts in order; once exhausted it stays
// unconvinced with the last message.
type Fake struct {
	mu       sync.Mutex
	verdicts []Verdict
	calls    int
	levels   []detector.Level
}

func NewFake(verdicts ...Verdict) *Fake {
	return &Fake{verdicts: verdicts}
}

func (f *Fake) Verify(_ context.Context, _ string, level detector.Level) Verdict {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels = append(f.levels, level)
	i := f.calls
	f.calls++
	if i < len(f.verdicts) {
		return f.verdicts[i]
	}
	return Verdict{Convinced: false, Message: "still not convinced"}
}

func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Levels returns the level passed with each Verify call.
func (f *Fake) Levels() []detector.Level {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]detector.Level, len(f.levels))
	copy(out, f.levels)
	return out
}
