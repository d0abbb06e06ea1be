package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatServer(t *testing.T, content string, seen *map[string]interface{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4.1-mini",
			"choices": []map[string]interface{}{
				{"index": 0, "finish_reason": "stop", "message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChatProviderGenerate(t *testing.T) {
	var body map[string]interface{}
	srv := newChatServer(t, `  {"title":"t","explanation":"e","quiz":[]}  `, &body)

	client := NewClient(ClientConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	p := NewChatProvider(client, "gpt-4.1-mini", 0.4, 512)

	out, err := p.Generate(context.Background(), Prompt{System: "sys", User: "السؤال: ما هي الخلية؟"})
	require.NoError(t, err)
	assert.Equal(t, `{"title":"t","explanation":"e","quiz":[]}`, out)
	assert.Equal(t, "chat", p.Name())

	assert.Equal(t, "gpt-4.1-mini", body["model"])
	msgs := body["messages"].([]interface{})
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]interface{})["role"])
	assert.Equal(t, "json_object", body["response_format"].(map[string]interface{})["type"])
}

func TestChatProviderEmptyReply(t *testing.T) {
	srv := newChatServer(t, "   ", nil)
	p := NewChatProvider(NewClient(ClientConfig{APIKey: "k", BaseURL: srv.URL + "/v1"}), "m", 0, 0)

	_, err := p.Generate(context.Background(), Prompt{User: "q"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestChatProviderUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
	}))
	defer srv.Close()

	p := NewChatProvider(NewClient(ClientConfig{APIKey: "k", BaseURL: srv.URL + "/v1"}), "m", 0, 0)
	_, err := p.Generate(context.Background(), Prompt{User: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat completion")
}

func TestChatProviderNotConfigured(t *testing.T) {
	assert.Nil(t, NewClient(ClientConfig{}))

	p := NewChatProvider(nil, "m", 0, 0)
	_, err := p.Generate(context.Background(), Prompt{User: "q"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
