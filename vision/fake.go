package vision

import (
	"context"
	"io"
)

// FakeSource replays scripted samples, then io.EOF.
type FakeSource struct {
	samples []Sample
	pos     int
}

func NewFake(samples ...Sample) *FakeSource {
	return &FakeSource{samples: samples}
}

func (f *FakeSource) Next(ctx context.Context) (Sample, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}
	if f.pos >= len(f.samples) {
		return Sample{}, io.EOF
	}
	s := f.samples[f.pos]
	f.pos++
	return s, nil
}

func (f *FakeSource) Close() error { return nil }
