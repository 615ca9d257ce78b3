// Package listener captures a single utterance from the microphone: wait
// for voice onset, record until trailing silence or the phrase limit, then
// hand the FLAC-encoded audio to the transcriber.
package listener

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"vigil/audio"
	"vigil/encoder"
	"vigil/transcriber"
)

// ErrNoSpeech re-exports the transcriber sentinel; Listen returns it both
// when nobody speaks before the timeout and when the service hears nothing.
var ErrNoSpeech = transcriber.ErrNoSpeech

type Listener interface {
	// Calibrate samples ambient noise and re-bases the voice-detection
	// floor. Called before each listen attempt so the floor tracks cabin
	// noise as it changes.
	Calibrate(ctx context.Context)
	// Listen captures one utterance. timeout bounds the wait for speech to
	// start; phraseLimit bounds the utterance itself.
	Listen(ctx context.Context, timeout, phraseLimit time.Duration) (string, error)
}

const (
	pollInterval = 50 * time.Millisecond
	tailSilence  = 800 * time.Millisecond
	calibrateFor = 300 * time.Millisecond
)

type Mic struct {
	capture audio.CaptureDevice
	trans   transcriber.Transcriber
	vad     *vadProcessor
}

func NewMic(capture audio.CaptureDevice, trans transcriber.Transcriber) (*Mic, error) {
	vp, err := newVADProcessor()
	if err != nil {
		return nil, fmt.Errorf("VAD init: %w", err)
	}
	return &Mic{capture: capture, trans: trans, vad: vp}, nil
}

func (m *Mic) Calibrate(ctx context.Context) {
	var mu sync.Mutex
	var sumSquares float64
	var samples int

	m.capture.SetCallback(func(data []byte, _ uint32) {
		mu.Lock()
		for i := 0; i+1 < len(data); i += 2 {
			s := float64(int16(binary.LittleEndian.Uint16(data[i:]))) / 32768.0
			sumSquares += s * s
		}
		samples += len(data) / 2
		mu.Unlock()
	})
	if err := m.capture.Start(); err != nil {
		m.capture.ClearCallback()
		return
	}
	select {
	case <-time.After(calibrateFor):
	case <-ctx.Done():
	}
	m.capture.Stop()
	m.capture.ClearCallback()

	mu.Lock()
	defer mu.Unlock()
	if samples == 0 {
		return
	}
	ambient := math.Sqrt(sumSquares / float64(samples))
	m.vad.SetNoiseFloor(ambient * 2.5)
}

func (m *Mic) Listen(ctx context.Context, timeout, phraseLimit time.Duration) (string, error) {
	m.vad.Reset()

	var mu sync.Mutex
	var pcm []byte
	m.capture.SetCallback(func(data []byte, _ uint32) {
		chunk := make([]byte, len(data))
		copy(chunk, data)
		mu.Lock()
		pcm = append(pcm, chunk...)
		mu.Unlock()
		m.vad.Process(chunk)
	})
	if err := m.capture.Start(); err != nil {
		m.capture.ClearCallback()
		return "", fmt.Errorf("capture start: %w", err)
	}
	defer func() {
		m.capture.Stop()
		m.capture.ClearCallback()
	}()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	// Phase 1: wait for voice onset.
	waitStart := time.Now()
	for !m.vad.VoiceDetected() {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
		if time.Since(waitStart) >= timeout {
			return "", ErrNoSpeech
		}
	}

	// Phase 2: record until the speaker trails off or the phrase cap hits.
	speechStart := time.Now()
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
		if time.Since(speechStart) >= phraseLimit {
			break
		}
		if time.Since(m.vad.LastVoiceTime()) >= tailSilence {
			break
		}
	}

	mu.Lock()
	captured := pcm
	pcm = nil
	mu.Unlock()

	encoded, err := encodeFlac(captured)
	if err != nil {
		return "", fmt.Errorf("encode utterance: %w", err)
	}
	return m.trans.Transcribe(ctx, encoded, "flac")
}

func encodeFlac(pcm []byte) ([]byte, error) {
	enc, err := encoder.NewFlac()
	if err != nil {
		return nil, err
	}

	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	for len(samples) >= encoder.BlockSize {
		if err := enc.EncodeBlock(samples[:encoder.BlockSize]); err != nil {
			return nil, err
		}
		samples = samples[encoder.BlockSize:]
	}
	if len(samples) > 0 {
		if err := enc.EncodeBlock(samples); err != nil {
			return nil, err
		}
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return enc.Bytes(), nil
}
