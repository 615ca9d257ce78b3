package tts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestGoogleCachesPerText(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if got := r.URL.Query().Get("q"); got != "wake up" {
			t.Errorf("q = %q, want %q", got, "wake up")
		}
		w.WriteHeader(http.StatusOK)
		w.Write(silentMP3(t))
	}))
	defer srv.Close()

	g := NewGoogle("en")
	g.baseURL = srv.URL

	first, err := g.Synthesize(context.Background(), "wake up")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	second, err := g.Synthesize(context.Background(), "wake up")
	if err != nil {
		t.Fatalf("Synthesize (cached): %v", err)
	}
	if first != second {
		t.Error("cached call returned a different Sound")
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server hit %d times, want 1", n)
	}
}

func TestGoogleErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	g := NewGoogle("en")
	g.baseURL = srv.URL
	if _, err := g.Synthesize(context.Background(), "hello"); err == nil {
		t.Fatal("expected error on 403")
	}
}

func TestDecodeMP3Garbage(t *testing.T) {
	if _, err := DecodeMP3([]byte("definitely not an mp3 stream")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestFakeRecordsTexts(t *testing.T) {
	f := NewFake()
	s, err := f.Synthesize(context.Background(), "stay awake")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(s.Samples) == 0 {
		t.Error("fake clip is empty")
	}
	if got := f.Texts(); len(got) != 1 || got[0] != "stay awake" {
		t.Errorf("Texts() = %v", got)
	}
}

// silentMP3 builds a single minimal MPEG-1 Layer III frame so the decode
// path in Synthesize has something well-formed to chew on.
func silentMP3(t *testing.T) []byte {
	t.Helper()
	// 44100 Hz, 128 kbps, stereo, no CRC: frame length 417 bytes.
	frame := make([]byte, 417)
	frame[0] = 0xFF
	frame[1] = 0xFB
	frame[2] = 0x90
	frame[3] = 0x00
	return frame
}
