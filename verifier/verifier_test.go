package verifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"vigil/detector"
)

func chatReply(t *testing.T, content string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}
}

func TestVerifyNoCredential(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	v := NewRemote("", srv.URL, "test-model")
	verdict := v.Verify(context.Background(), "I'm awake", detector.Extreme)

	require.False(t, verdict.Convinced)
	require.NotEmpty(t, verdict.Message)
	require.Zero(t, calls.Load(), "no network call may be attempted without a credential")
}

func TestVerifyConvinced(t *testing.T) {
	srv := httptest.NewServer(chatReply(t,
		`Verdict follows. {"convinced": true, "message": "Good, you sound sharp."}`))
	defer srv.Close()

	v := NewRemote("key", srv.URL, "test-model")
	verdict := v.Verify(context.Background(), "yes I am fully awake, eyes on the road", detector.Normal)

	require.True(t, verdict.Convinced)
	require.Equal(t, "Good, you sound sharp.", verdict.Message)
}

func TestVerifyPromptCarriesLevelAndTranscript(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		gotPrompt = req.Messages[0].Content
		chatReply(t, `{"convinced": false, "message": "say more"}`)(w, r)
	}))
	defer srv.Close()

	v := NewRemote("key", srv.URL, "test-model")
	v.Verify(context.Background(), "huh what", detector.Extreme)

	require.Contains(t, gotPrompt, "EXTREME")
	require.Contains(t, gotPrompt, "huh what")
}

func TestVerifyTransportFailureFailsClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	v := NewRemote("key", srv.URL, "test-model")
	verdict := v.Verify(context.Background(), "I'm awake", detector.Normal)

	require.False(t, verdict.Convinced)
	require.NotEmpty(t, verdict.Message)
}

func TestVerifyHTTPErrorFailsClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	v := NewRemote("key", srv.URL, "test-model")
	verdict := v.Verify(context.Background(), "I'm awake", detector.Normal)
	require.False(t, verdict.Convinced)
}

func TestVerifyGarbageBodyFailsClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	v := NewRemote("key", srv.URL, "test-model")
	verdict := v.Verify(context.Background(), "I'm awake", detector.Extreme)
	require.False(t, verdict.Convinced)
	require.NotEmpty(t, verdict.Message)
}
