package vision

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// TraceSource replays a recorded measurement trace from a text file. One
// sample per line: a float is the frame's eye aspect ratio, a lone "-" marks
// a frame with no face. Blank lines and lines starting with # are skipped.
type TraceSource struct {
	f       *os.File
	scanner *bufio.Scanner
	line    int

	// interval paces replay to the recording's frame rate; zero replays as
	// fast as the caller consumes.
	interval time.Duration
	next     time.Time
}

func OpenTrace(path string, fps float64) (*TraceSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	t := &TraceSource{f: f, scanner: bufio.NewScanner(f)}
	if fps > 0 {
		t.interval = time.Duration(float64(time.Second) / fps)
	}
	return t, nil
}

func (t *TraceSource) Next(ctx context.Context) (Sample, error) {
	for t.scanner.Scan() {
		t.line++
		text := strings.TrimSpace(t.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		if err := t.pace(ctx); err != nil {
			return Sample{}, err
		}

		if text == "-" {
			return Sample{}, nil
		}
		ear, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Sample{}, fmt.Errorf("trace line %d: %w", t.line, err)
		}
		return Sample{EAR: ear, FaceFound: true}, nil
	}
	if err := t.scanner.Err(); err != nil {
		return Sample{}, err
	}
	return Sample{}, io.EOF
}

// pace sleeps out the remainder of the frame interval.
func (t *TraceSource) pace(ctx context.Context) error {
	if t.interval == 0 {
		return nil
	}
	now := time.Now()
	if t.next.IsZero() {
		t.next = now.Add(t.interval)
		return nil
	}
	wait := t.next.Sub(now)
	t.next = t.next.Add(t.interval)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (t *TraceSource) Close() error { return t.f.Close() }
