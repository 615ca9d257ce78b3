// Package verifier asks an external text-reasoning service whether a
// driver's spoken reply shows they are genuinely awake. Every failure path
// fails closed: the driver is never judged awake because a service broke.
package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"vigil/detector"
)

// Verdict is the service's judgment, consumed once by the alert scheduler.
type Verdict struct {
	Convinced bool   `json:"convinced"`
	Message   string `json:"message,omitempty"`
}

type Verifier interface {
	// Verify is one-shot per utterance: no retries, a failed call means the
	// alert cycle continues and the monitor listens again.
	Verify(ctx context.Context, transcript string, level detector.Level) Verdict
}

const (
	DefaultEndpoint = "https://api.groq.com/openai/v1/chat/completions"
	DefaultModel    = "llama-3.3-70b-versatile"

	msgNotConfigured = "Voice verification is not configured. Please pull over and rest."
	msgUnreachable   = "I could not reach the verification service. Please stay alert."
	msgUnparsable    = "I could not understand the verification reply. Please stay alert."
)

type Remote struct {
	apiKey   string
	endpoint string
	model    string
	client   *http.Client
}

func NewRemote(apiKey, endpoint, model string) *Remote {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if model == "" {
		model = DefaultModel
	}
	return &Remote{
		apiKey:   apiKey,
		endpoint: endpoint,
		model:    model,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func notConvinced(message string) Verdict {
	return Verdict{Convinced: false, Message: message}
}

func (r *Remote) Verify(ctx context.Context, transcript string, level detector.Level) Verdict {
	if r.apiKey == "" {
		return notConvinced(msgNotConfigured)
	}

	prompt := fmt.Sprintf(
		"You verify wakefulness in a driver drowsiness alert system. "+
			"The driver's current alert level is %s. They just said: %q. "+
			"Decide whether this reply shows a genuinely awake, responsive driver "+
			"(a coherent sentence, not a mumble or a word fragment). "+
			"Answer with exactly one JSON object, no other text: "+
			`{"convinced": true|false, "message": "<short spoken reply to the driver>"}`,
		level, transcript)

	body, err := json.Marshal(chatRequest{
		Model:       r.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.2,
	})
	if err != nil {
		return notConvinced(msgUnreachable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return notConvinced(msgUnreachable)
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return notConvinced(msgUnreachable)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != http.StatusOK {
		return notConvinced(msgUnreachable)
	}

	var cResp chatResponse
	if err := json.Unmarshal(respBody, &cResp); err != nil || len(cResp.Choices) == 0 {
		return notConvinced(msgUnparsable)
	}

	return ParseVerdict(cResp.Choices[0].Message.Content)
}

// ParseVerdict pulls the verdict object out of the model's free-text reply.
// Unparsable replies fail closed.
func ParseVerdict(content string) Verdict {
	obj, ok := ExtractObject(content)
	if !ok {
		return notConvinced(msgUnparsable)
	}
	var v Verdict
	if err := json.Unmarshal([]byte(obj), &v); err != nil {
		return notConvinced(msgUnparsable)
	}
	return v
}
