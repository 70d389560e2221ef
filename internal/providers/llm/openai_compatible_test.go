package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/tutord/internal/core"
)

func TestToWire_RoleMapping(t *testing.T) {
	wire := toWire([]core.Message{
		{Role: core.RoleSystem, Content: "s"},
		{Role: core.RoleHuman, Content: "h"},
		{Role: core.RoleAssistant, Content: "a"},
	})

	assert.Equal(t, "system", wire[0].Role)
	assert.Equal(t, "user", wire[1].Role)
	assert.Equal(t, "assistant", wire[2].Role)
}

func sseChunk(content string) string {
	return fmt.Sprintf(`data: {"choices":[{"delta":{"content":%q}}]}`, content)
}

func TestChatStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, true, payload["stream"])

		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []string{
			sseChunk("Hello"),
			": keep-alive",
			sseChunk(" world"),
			sseChunk("!"),
			"data: [DONE]",
		}
		for _, c := range chunks {
			fmt.Fprint(w, c+"\n\n")
		}
	}))
	defer server.Close()

	p := NewOpenAICompatible(OpenAICompatibleConfig{
		BaseURL:    server.URL,
		APIKey:     "test-key",
		Model:      "test-model",
		AuthHeader: "Authorization",
		AuthPrefix: "Bearer ",
	})

	var deltas []string
	full, err := p.ChatStream(context.Background(), []core.Message{
		{Role: core.RoleHuman, Content: "hi"},
	}, func(delta string) error {
		deltas = append(deltas, delta)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello world!", full)
	assert.Equal(t, []string{"Hello", " world", "!"}, deltas)
}

func TestChatStream_OnDeltaErrorAborts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for i := 0; i < 10; i++ {
			fmt.Fprint(w, sseChunk("x")+"\n\n")
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	p := NewOpenAICompatible(OpenAICompatibleConfig{BaseURL: server.URL, Model: "m"})

	calls := 0
	_, err := p.ChatStream(context.Background(), nil, func(delta string) error {
		calls++
		if calls == 2 {
			return fmt.Errorf("stop here")
		}
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"pong"}}]}`)
	}))
	defer server.Close()

	p := NewOpenAICompatible(OpenAICompatibleConfig{BaseURL: server.URL, Model: "m"})

	reply, err := p.Chat(context.Background(), []core.Message{{Role: core.RoleHuman, Content: "ping"}})
	require.NoError(t, err)
	assert.Equal(t, core.RoleAssistant, reply.Role)
	assert.Equal(t, "pong", reply.Content)
}

func TestChat_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "model overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p := NewOpenAICompatible(OpenAICompatibleConfig{BaseURL: server.URL, Model: "m"})

	_, err := p.Chat(context.Background(), []core.Message{{Role: core.RoleHuman, Content: "ping"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
