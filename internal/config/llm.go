package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/tutord/pkg/log"
)

type LLMConfig struct {
	// Provider selects the chat backend: openai, openrouter, ollama or
	// custom (any OpenAI-compatible endpoint).
	Provider string `env:"LLM_PROVIDER" envDefault:"openai"`

	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	OpenRouterAPIKey string `env:"OPENROUTER_API_KEY"`
	OllamaBaseURL    string `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`
	CustomBaseURL    string `env:"CUSTOM_LLM_BASE_URL"`
	CustomAPIKey     string `env:"CUSTOM_LLM_API_KEY"`

	// PlannerModel generates curricula; TutorModel drives the
	// conversational exchanges; SummaryModel compacts buffer blocks.
	PlannerModel string `env:"PLANNER_MODEL" envDefault:"gpt-4o"`
	TutorModel   string `env:"TUTOR_MODEL" envDefault:"gpt-4o-mini"`
	SummaryModel string `env:"SUMMARY_MODEL" envDefault:"gpt-4o-mini"`
}

func NewLLMConfig(ctx context.Context) *LLMConfig {
	c := &LLMConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse LLM config")
	}
	return c
}
