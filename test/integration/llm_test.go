//go:build integration

package integration

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sandevgo/tutord/internal/core"
	"github.com/sandevgo/tutord/internal/providers/llm"
)

// Runs against a live OpenAI-compatible endpoint. Configure with:
//
//	CUSTOM_LLM_BASE_URL=http://localhost:11434 \
//	TUTOR_MODEL=llama3.2 \
//	go test -tags integration ./test/integration/
func newLiveProvider(t *testing.T) core.ChatProvider {
	baseURL := os.Getenv("CUSTOM_LLM_BASE_URL")
	if baseURL == "" {
		t.Skip("CUSTOM_LLM_BASE_URL not set, skipping live provider test")
	}
	model := os.Getenv("TUTOR_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}

	return llm.NewOpenAICompatible(llm.OpenAICompatibleConfig{
		BaseURL:    baseURL,
		APIKey:     os.Getenv("CUSTOM_LLM_API_KEY"),
		Model:      model,
		AuthHeader: "Authorization",
		AuthPrefix: "Bearer ",
	})
}

func TestLiveChat(t *testing.T) {
	provider := newLiveProvider(t)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	reply, err := provider.Chat(ctx, []core.Message{
		{Role: core.RoleSystem, Content: "You are a terse assistant. Answer in one word."},
		{Role: core.RoleHuman, Content: "What language is the Go compiler written in?"},
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if strings.TrimSpace(reply.Content) == "" {
		t.Fatal("empty reply")
	}
	t.Logf("Reply: %s", reply.Content)
}

func TestLiveChatStream(t *testing.T) {
	provider := newLiveProvider(t)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var deltas int
	full, err := provider.ChatStream(ctx, []core.Message{
		{Role: core.RoleSystem, Content: "You are a terse assistant."},
		{Role: core.RoleHuman, Content: "Count from 1 to 5."},
	}, func(delta string) error {
		deltas++
		return nil
	})
	if err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}
	if strings.TrimSpace(full) == "" {
		t.Fatal("empty streamed reply")
	}
	if deltas == 0 {
		t.Fatal("no deltas delivered")
	}
	t.Logf("Deltas: %d, reply: %s", deltas, full)
}
