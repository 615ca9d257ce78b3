// Package tts synthesizes alert speech. The Google Translate endpoint
// returns MP3, decoded here to the PCM Sound the mixer plays. Synthesis is
// cached per text, so repeating an alert never refetches.
package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/hajimehoshi/go-mp3"

	"vigil/audio"
)

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*audio.Sound, error)
}

type Google struct {
	lang    string
	baseURL string
	client  *http.Client

	mu    sync.Mutex
	cache map[string]*audio.Sound
}

func NewGoogle(lang string) *Google {
	if lang == "" {
		lang = "en"
	}
	return &Google{
		lang:    lang,
		baseURL: "https://translate.google.com/translate_tts",
		client:  &http.Client{Timeout: 15 * time.Second},
		cache:   make(map[string]*audio.Sound),
	}
}

func (g *Google) Synthesize(ctx context.Context, text string) (*audio.Sound, error) {
	g.mu.Lock()
	if s, ok := g.cache[text]; ok {
		g.mu.Unlock()
		return s, nil
	}
	g.mu.Unlock()

	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", g.lang)
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts error %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tts read: %w", err)
	}

	sound, err := DecodeMP3(body)
	if err != nil {
		return nil, fmt.Errorf("tts decode: %w", err)
	}

	g.mu.Lock()
	g.cache[text] = sound
	g.mu.Unlock()
	return sound, nil
}

// DecodeMP3 converts an MP3 clip to mono PCM. go-mp3 always emits 16-bit
// stereo; channels are averaged down.
func DecodeMP3(data []byte) (*audio.Sound, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var samples []int16
	buf := make([]byte, 4096)
	for {
		n, err := dec.Read(buf)
		for i := 0; i+3 < n; i += 4 {
			left := int16(uint16(buf[i]) | uint16(buf[i+1])<<8)
			right := int16(uint16(buf[i+2]) | uint16(buf[i+3])<<8)
			samples = append(samples, int16((int32(left)+int32(right))/2))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	return &audio.Sound{Rate: dec.SampleRate(), Samples: samples}, nil
}
