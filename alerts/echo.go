package alerts

import (
	"strings"
	"sync"
)

// messageLogSize bounds how many recent spoken messages are remembered for
// echo matching. Older entries fall off; by then the room has gone quiet.
const messageLogSize = 5

// MessageLog remembers the last few phrases the system spoke out loud.
// Everything is stored lowercased so matching is case-insensitive.
type MessageLog struct {
	mu      sync.Mutex
	entries []string
}

func NewMessageLog() *MessageLog {
	return &MessageLog{}
}

func (l *MessageLog) Append(text string) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, text)
	if len(l.entries) > messageLogSize {
		l.entries = l.entries[len(l.entries)-messageLogSize:]
	}
}

// Recent returns a copy of the remembered messages, oldest first.
func (l *MessageLog) Recent() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// EchoFilter decides whether a transcript is just the microphone hearing the
// system's own speaker output. Two signals: the spoken message contained
// verbatim in the transcript, or a heavy word overlap with a longer message.
type EchoFilter struct {
	log *MessageLog
}

func NewEchoFilter(log *MessageLog) *EchoFilter {
	return &EchoFilter{log: log}
}

func (f *EchoFilter) IsEcho(transcript string) bool {
	t := strings.ToLower(strings.TrimSpace(transcript))
	if t == "" {
		return false
	}
	tWords := wordSet(t)
	for _, msg := range f.log.Recent() {
		if strings.Contains(t, msg) {
			return true
		}
		// The gate and the ratio run on the message's word count, repeats
		// included; the set is only for membership.
		count := len(strings.Fields(msg))
		if count <= 3 {
			continue
		}
		overlap := 0
		for w := range wordSet(msg) {
			if tWords[w] {
				overlap++
			}
		}
		if float64(overlap) >= 0.6*float64(count) {
			return true
		}
	}
	return false
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}
