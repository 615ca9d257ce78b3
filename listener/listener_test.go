package listener

import (
	"context"
	"errors"
	"testing"
	"time"

	"vigil/audio"
	"vigil/transcriber"
)

func newMicOn(t *testing.T, pcm []byte) (*Mic, *transcriber.Fake) {
	t.Helper()
	ctx := audio.NewFakeContext(pcm, false)
	capture, err := ctx.NewCapture(nil, audio.CaptureConfig{SampleRate: audio.SampleRate, Channels: audio.Channels})
	if err != nil {
		t.Fatal(err)
	}
	trans := transcriber.NewFake("i am awake")
	mic, err := NewMic(capture, trans)
	if err != nil {
		t.Fatal(err)
	}
	return mic, trans
}

func TestListenTimesOutOnSilence(t *testing.T) {
	mic, trans := newMicOn(t, genSilence(100))

	_, err := mic.Listen(context.Background(), 300*time.Millisecond, time.Second)
	if !errors.Is(err, ErrNoSpeech) {
		t.Fatalf("err = %v, want ErrNoSpeech", err)
	}
	if trans.Calls() != 0 {
		t.Errorf("transcriber called %d times on silence", trans.Calls())
	}
}

func TestListenCapturesUtterance(t *testing.T) {
	// A second of loud tone; the fake capture then feeds silence, so the
	// trailing-silence cutoff ends the phrase.
	mic, trans := newMicOn(t, genTone(300, 1000, 0.6))

	text, err := mic.Listen(context.Background(), 2*time.Second, 5*time.Second)
	if errors.Is(err, ErrNoSpeech) {
		// WebRTC VAD may not classify a pure tone as speech; nothing else
		// in CI produces real speech audio.
		t.Skip("tone not classified as speech")
	}
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	if text != "i am awake" {
		t.Errorf("text = %q", text)
	}
	if trans.Calls() != 1 {
		t.Errorf("transcriber calls = %d, want 1", trans.Calls())
	}
}

func TestListenHonorsCancellation(t *testing.T) {
	mic, _ := newMicOn(t, genSilence(100))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	_, err := mic.Listen(ctx, 10*time.Second, 10*time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("cancellation not observed promptly")
	}
}

func TestEncodeFlacProducesStream(t *testing.T) {
	data, err := encodeFlac(genTone(440, 500, 0.4))
	if err != nil {
		t.Fatalf("encodeFlac: %v", err)
	}
	if len(data) < 4 || string(data[:4]) != "fLaC" {
		t.Errorf("missing flac marker, got %d bytes", len(data))
	}
}

func TestFakeListenerScript(t *testing.T) {
	f := NewFake(FakeResult{Text: "yeah"}, FakeResult{Err: ErrNoSpeech})
	ctx := context.Background()

	text, err := f.Listen(ctx, time.Millisecond, time.Second)
	if err != nil || text != "yeah" {
		t.Fatalf("got %q, %v", text, err)
	}
	if _, err := f.Listen(ctx, time.Millisecond, time.Second); !errors.Is(err, ErrNoSpeech) {
		t.Fatalf("err = %v, want ErrNoSpeech", err)
	}
	// Script exhausted: silent-cabin behavior.
	if _, err := f.Listen(ctx, time.Millisecond, time.Second); !errors.Is(err, ErrNoSpeech) {
		t.Fatalf("err = %v, want ErrNoSpeech", err)
	}
	if f.Listens() != 3 {
		t.Errorf("Listens = %d, want 3", f.Listens())
	}
}
