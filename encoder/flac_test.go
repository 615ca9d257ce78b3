package encoder

import (
	"bytes"
	"math"
	"testing"

	"github.com/mewkiz/flac"
)

func genSine(freq float64, n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(8000 * math.Sin(2*math.Pi*freq*float64(i)/SampleRate))
	}
	return out
}

func TestFlacRoundtrip(t *testing.T) {
	enc, err := NewFlac()
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}

	tone := genSine(440, BlockSize*3)
	for i := 0; i < len(tone); i += BlockSize {
		if err := enc.EncodeBlock(tone[i : i+BlockSize]); err != nil {
			t.Fatalf("EncodeBlock: %v", err)
		}
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if got, want := enc.TotalFrames(), uint64(len(tone)); got != want {
		t.Errorf("TotalFrames = %d, want %d", got, want)
	}

	stream, err := flac.New(bytes.NewReader(enc.Bytes()))
	if err != nil {
		t.Fatalf("decoding produced flac: %v", err)
	}
	defer stream.Close()
	if stream.Info.SampleRate != SampleRate {
		t.Errorf("sample rate = %d, want %d", stream.Info.SampleRate, SampleRate)
	}
	if stream.Info.NChannels != Channels {
		t.Errorf("channels = %d, want %d", stream.Info.NChannels, Channels)
	}
}

func TestFlacPartialBlock(t *testing.T) {
	enc, err := NewFlac()
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}
	if err := enc.EncodeBlock(genSine(220, 777)); err != nil {
		t.Fatalf("EncodeBlock partial: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(enc.Bytes()) == 0 {
		t.Error("expected encoded bytes for partial block")
	}
}
