// Package vision supplies per-frame eye measurements. The camera pipeline
// itself lives outside this process; what arrives here is one eye-aspect
// ratio per frame, or a marker that no face was visible.
package vision

import "context"

// Sample is one camera frame reduced to the measurements the detector needs.
type Sample struct {
	// EAR is the eye aspect ratio, meaningful only when FaceFound is set.
	EAR       float64
	FaceFound bool
}

// Source produces frame samples in capture order.
type Source interface {
	// Next blocks until the next sample is due. It returns io.EOF when the
	// source is exhausted and ctx.Err() on cancellation.
	Next(ctx context.Context) (Sample, error)
	Close() error
}
