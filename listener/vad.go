package listener

import (
	"encoding/binary"
	"math"
	"sync"
	"time"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"

	"vigil/audio"
)

const (
	vadMode       = 3
	vadFrameMs    = 20
	vadFrameBytes = audio.SampleRate * vadFrameMs / 1000 * 2 // 640 bytes
	vadDebounce   = 3 // consecutive speech frames to confirm voice

	defaultNoiseFloor = 0.005
)

// vadProcessor runs WebRTC VAD over the capture stream, gated by a
// calibrated ambient RMS floor so playback bleed and road noise below the
// floor never count as speech.
type vadProcessor struct {
	vad *webrtcvad.VAD

	mu            sync.Mutex
	buf           []byte
	noiseFloor    float64
	voiceDetected bool
	lastVoiceTime time.Time
	speechRun     int
}

func newVADProcessor() (*vadProcessor, error) {
	v, err := webrtcvad.New()
	if err != nil {
		return nil, err
	}
	if err := v.SetMode(vadMode); err != nil {
		return nil, err
	}
	return &vadProcessor{vad: v, noiseFloor: defaultNoiseFloor}, nil
}

func (p *vadProcessor) SetNoiseFloor(floor float64) {
	p.mu.Lock()
	if floor < defaultNoiseFloor {
		floor = defaultNoiseFloor
	}
	p.noiseFloor = floor
	p.mu.Unlock()
}

func frameRMS(frame []byte) float64 {
	var sumSquares float64
	for i := 0; i+1 < len(frame); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(frame[i:]))
		normalized := float64(sample) / 32768.0
		sumSquares += normalized * normalized
	}
	n := len(frame) / 2
	if n == 0 {
		return 0
	}
	return math.Sqrt(sumSquares / float64(n))
}

func (p *vadProcessor) Process(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.buf = append(p.buf, data...)
	for len(p.buf) >= vadFrameBytes {
		frame := p.buf[:vadFrameBytes]
		p.buf = p.buf[vadFrameBytes:]

		active, err := p.vad.Process(audio.SampleRate, frame)
		if err != nil {
			continue
		}
		if active && frameRMS(frame) < p.noiseFloor {
			active = false
		}
		if active {
			p.speechRun++
			if p.voiceDetected {
				p.lastVoiceTime = time.Now()
			} else if p.speechRun >= vadDebounce {
				p.voiceDetected = true
				p.lastVoiceTime = time.Now()
			}
		} else {
			p.speechRun = 0
		}
	}
}

func (p *vadProcessor) VoiceDetected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.voiceDetected
}

func (p *vadProcessor) LastVoiceTime() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastVoiceTime
}

func (p *vadProcessor) Reset() {
	p.mu.Lock()
	p.buf = p.buf[:0]
	p.voiceDetected = false
	p.lastVoiceTime = time.Time{}
	p.speechRun = 0
	p.mu.Unlock()
}
