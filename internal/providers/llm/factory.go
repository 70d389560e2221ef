package llm

import (
	"context"
	"fmt"

	"github.com/sandevgo/tutord/internal/config"
	"github.com/sandevgo/tutord/internal/core"
	"github.com/sandevgo/tutord/pkg/log"
)

// NewProvider creates a ChatProvider for the given model based on the
// configured backend. The engine uses three instances: planner, tutor and
// summarizer, which may point at different models of the same backend.
func NewProvider(ctx context.Context, cfg *config.LLMConfig, model string) (core.ChatProvider, error) {
	log.FromCtx(ctx).Info().
		Str("provider", cfg.Provider).
		Str("model", model).
		Msg("starting llm provider")

	switch cfg.Provider {
	case "openai":
		return NewOpenAICompatible(OpenAICompatibleConfig{
			BaseURL:    "https://api.openai.com",
			APIKey:     cfg.OpenAIAPIKey,
			Model:      model,
			AuthHeader: "Authorization",
			AuthPrefix: "Bearer ",
		}), nil
	case "openrouter":
		return NewOpenAICompatible(OpenAICompatibleConfig{
			BaseURL:    "https://openrouter.ai/api",
			APIKey:     cfg.OpenRouterAPIKey,
			Model:      model,
			AuthHeader: "Authorization",
			AuthPrefix: "Bearer ",
			ExtraHeaders: map[string]string{
				"X-Title": core.TutordName,
			},
		}), nil
	case "ollama":
		return NewOpenAICompatible(OpenAICompatibleConfig{
			BaseURL: cfg.OllamaBaseURL,
			Model:   model,
		}), nil
	case "custom":
		return NewOpenAICompatible(OpenAICompatibleConfig{
			BaseURL:    cfg.CustomBaseURL,
			APIKey:     cfg.CustomAPIKey,
			Model:      model,
			AuthHeader: "Authorization",
			AuthPrefix: "Bearer ",
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}
