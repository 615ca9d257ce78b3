package listener

import (
	"encoding/binary"
	"math"
	"testing"

	"vigil/audio"
)

func genTone(freq float64, durationMs int, amplitude float64) []byte {
	n := audio.SampleRate * durationMs / 1000
	buf := make([]byte, n*2)
	for i := 0; i < n; i++ {
		sample := int16(amplitude * 32767 * math.Sin(2*math.Pi*freq*float64(i)/audio.SampleRate))
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(sample))
	}
	return buf
}

func genSilence(durationMs int) []byte {
	return make([]byte, audio.SampleRate*durationMs/1000*2)
}

func TestVADSilence(t *testing.T) {
	vp, err := newVADProcessor()
	if err != nil {
		t.Fatal(err)
	}
	vp.Process(genSilence(200))
	if vp.VoiceDetected() {
		t.Error("expected no voice on silence")
	}
}

func TestVADOddChunkSizes(t *testing.T) {
	vp, err := newVADProcessor()
	if err != nil {
		t.Fatal(err)
	}
	// Feed 200ms of silence in 100-byte chunks (not aligned to 640-byte frames)
	silence := genSilence(200)
	for i := 0; i < len(silence); i += 100 {
		end := min(i+100, len(silence))
		vp.Process(silence[i:end])
	}
	if vp.VoiceDetected() {
		t.Error("expected no voice on silence with odd chunks")
	}
}

func TestVADNoiseFloorGate(t *testing.T) {
	vp, err := newVADProcessor()
	if err != nil {
		t.Fatal(err)
	}
	// Raise the floor above the tone's RMS; even frames the VAD would call
	// speech must be gated out.
	vp.SetNoiseFloor(0.9)
	vp.Process(genTone(440, 300, 0.5))
	if vp.VoiceDetected() {
		t.Error("expected tone below noise floor to be gated")
	}
}

func TestVADReset(t *testing.T) {
	vp, err := newVADProcessor()
	if err != nil {
		t.Fatal(err)
	}
	vp.Process(genTone(440, 200, 0.5))
	vp.Reset()
	if vp.VoiceDetected() {
		t.Error("expected no voice after reset")
	}
	if !vp.LastVoiceTime().IsZero() {
		t.Error("expected zero LastVoiceTime after reset")
	}
}

func TestVADFloorClamp(t *testing.T) {
	vp, err := newVADProcessor()
	if err != nil {
		t.Fatal(err)
	}
	vp.SetNoiseFloor(0)
	vp.mu.Lock()
	floor := vp.noiseFloor
	vp.mu.Unlock()
	if floor != defaultNoiseFloor {
		t.Errorf("floor = %v, want clamped to %v", floor, defaultNoiseFloor)
	}
}
