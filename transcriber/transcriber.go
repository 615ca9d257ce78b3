// Package transcriber turns one captured utterance into text via a hosted
// speech-to-text API.
package transcriber

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"
)

// ErrNoSpeech reports that the service heard nothing intelligible. Callers
// treat it as "no response yet", not a failure.
var ErrNoSpeech = errors.New("no speech detected")

// ErrNotConfigured reports that no API credential is present. Transcribe
// fails immediately in that state, without a network call.
var ErrNotConfigured = errors.New("transcriber not configured: GROQ_API_KEY is empty")

type Transcriber interface {
	Name() string
	// Transcribe sends one encoded utterance and returns its text.
	// Returns ErrNoSpeech when the audio contains no usable speech.
	Transcribe(ctx context.Context, audioData []byte, format string) (string, error)
}

// New picks a provider from the environment. A missing credential is not
// fatal: the returned transcriber fails each Transcribe with
// ErrNotConfigured, which callers absorb as "no response yet", so alerts
// keep sounding without the external service.
func New() Transcriber {
	return NewGroq(os.Getenv("GROQ_API_KEY"))
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        4,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	}
}
