package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newOllamaServer(t *testing.T, handler http.HandlerFunc) *OllamaCompletion {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewOllamaCompletion(srv.URL, "symptomwise", zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestOllamaCompletion_Generate(t *testing.T) {
	c := newOllamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		_, _ = fmt.Fprintln(w, `{"model":"symptomwise","response":"  Likely a cold.  ","done":true}`)
	})

	text, err := c.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Likely a cold.", text)
}

func TestOllamaCompletion_Unavailable(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		c := newOllamaServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = fmt.Fprintln(w, `{"error":"model not loaded"}`)
		})
		_, err := c.Generate(context.Background(), "prompt")
		assert.ErrorIs(t, err, ErrCompletionUnavailable)
	})

	t.Run("empty response", func(t *testing.T) {
		c := newOllamaServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = fmt.Fprintln(w, `{"response":"","done":true}`)
		})
		_, err := c.Generate(context.Background(), "prompt")
		assert.ErrorIs(t, err, ErrCompletionUnavailable)
	})

	t.Run("unreachable", func(t *testing.T) {
		c, err := NewOllamaCompletion("http://127.0.0.1:1", "symptomwise", zap.NewNop())
		require.NoError(t, err)
		_, err = c.Generate(context.Background(), "prompt")
		assert.ErrorIs(t, err, ErrCompletionUnavailable)
	})
}

func TestOllamaCompletion_Stream(t *testing.T) {
	c := newOllamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintln(w, `{"response":"Likely ","done":false}`)
		_, _ = fmt.Fprintln(w, `{"response":"a cold.","done":false}`)
		_, _ = fmt.Fprintln(w, `{"response":"","done":true}`)
	})

	var chunks []string
	text, err := c.Stream(context.Background(), "prompt", func(s string) { chunks = append(chunks, s) })

	require.NoError(t, err)
	assert.Equal(t, "Likely a cold.", text)
	assert.Equal(t, []string{"Likely ", "a cold."}, chunks)
}

func TestOllamaCompletion_StreamKeepsPartialText(t *testing.T) {
	c := newOllamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintln(w, `{"response":"Likely ","done":false}`)
		_, _ = fmt.Fprintln(w, `{"error":"connection reset"}`)
	})

	text, err := c.Stream(context.Background(), "prompt", func(string) {})

	assert.ErrorIs(t, err, ErrCompletionUnavailable)
	assert.Equal(t, "Likely ", text)
}

func TestOpenAICompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Likely a cold."},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	c := NewOpenAICompletion("key", srv.URL, "gpt-test", zap.NewNop())
	text, err := c.Generate(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "Likely a cold.", text)
}

func TestOpenAICompletion_Stream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, chunk := range []string{"Likely ", "a cold."} {
			_, _ = fmt.Fprintf(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", chunk)
		}
		_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c := NewOpenAICompletion("key", srv.URL, "gpt-test", zap.NewNop())
	var chunks []string
	text, err := c.Stream(context.Background(), "prompt", func(s string) { chunks = append(chunks, s) })

	require.NoError(t, err)
	assert.Equal(t, "Likely a cold.", text)
	assert.Equal(t, []string{"Likely ", "a cold."}, chunks)
}

func TestOpenAICompletion_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = fmt.Fprint(w, `{"error":{"message":"rate limited","type":"requests"}}`)
	}))
	defer srv.Close()

	c := NewOpenAICompletion("key", srv.URL, "gpt-test", zap.NewNop())
	_, err := c.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrCompletionUnavailable)
}
