package alerts

import "testing"

func TestMessageLogBounded(t *testing.T) {
	l := NewMessageLog()
	msgs := []string{"one", "two", "three", "four", "five", "six", "seven"}
	for _, m := range msgs {
		l.Append(m)
	}
	got := l.Recent()
	if len(got) != messageLogSize {
		t.Fatalf("log holds %d entries, want %d", len(got), messageLogSize)
	}
	if got[0] != "three" || got[len(got)-1] != "seven" {
		t.Errorf("Recent() = %v, want oldest %q newest %q", got, "three", "seven")
	}
}

func TestMessageLogLowercasesAndSkipsEmpty(t *testing.T) {
	l := NewMessageLog()
	l.Append("  WAKE Up Please  ")
	l.Append("   ")
	got := l.Recent()
	if len(got) != 1 || got[0] != "wake up please" {
		t.Errorf("Recent() = %v", got)
	}
}

func TestEchoFilter(t *testing.T) {
	l := NewMessageLog()
	l.Append("Please pull over and take a break right now")
	l.Append("Hey")
	f := NewEchoFilter(l)

	tests := []struct {
		name       string
		transcript string
		want       bool
	}{
		{
			name:       "verbatim containment",
			transcript: "please pull over and take a break right now",
			want:       true,
		},
		{
			name:       "containment inside longer transcript",
			transcript: "I heard Please pull over and take a break right now from the speaker",
			want:       true,
		},
		{
			name:       "heavy word overlap",
			transcript: "pull over now and take a real break please",
			want:       true,
		},
		{
			name:       "short message matched verbatim",
			transcript: "hey",
			want:       true,
		},
		{
			name:       "short message never overlap-matches",
			transcript: "what is going on",
			want:       false,
		},
		{
			name:       "genuine reply",
			transcript: "I am fine, just thinking about dinner",
			want:       false,
		},
		{
			name:       "empty transcript",
			transcript: "   ",
			want:       false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.IsEcho(tt.transcript); got != tt.want {
				t.Errorf("IsEcho(%q) = %v, want %v", tt.transcript, got, tt.want)
			}
		})
	}
}

func TestEchoFilterCountsRepeatedWords(t *testing.T) {
	l := NewMessageLog()
	l.Append("wake up wake up now")
	f := NewEchoFilter(l)
	// Five words spoken, three distinct; all three heard back is 3/5 = 60%.
	if !f.IsEcho("wake up now everyone please") {
		t.Error("repeated-word message not matched as echo")
	}
}

func TestEchoFilterRatioUsesFullWordCount(t *testing.T) {
	l := NewMessageLog()
	l.Append("are you awake are you awake right now")
	f := NewEchoFilter(l)
	// Three of eight spoken words is well under the overlap bar, even
	// though it covers three of the five distinct words.
	if f.IsEcho("are you awake") {
		t.Error("short genuine reply flagged as echo")
	}
}

func TestEchoFilterNeedsMostWords(t *testing.T) {
	l := NewMessageLog()
	l.Append("you have been looking very sleepy lately friend")
	f := NewEchoFilter(l)
	// Only two of seven message words appear in the transcript.
	if f.IsEcho("I am not sleepy at all my friend") {
		t.Error("sparse overlap flagged as echo")
	}
}
