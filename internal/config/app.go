package config

import (
	"context"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/tutord/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"TUTORD_RUNTIME_PATH" envDefault:".tutord"`

	// MemoryBufferSize is the buffer capacity N: when the buffer fills to
	// exactly N messages, that block is summarized and cleared.
	MemoryBufferSize int `env:"MEMORY_BUFFER_SIZE" envDefault:"10"`

	// BurstTokenThreshold is the reply length, in tokens, below which an
	// exchange is delivered as a single burst instead of a stream.
	BurstTokenThreshold int `env:"BURST_TOKEN_THRESHOLD" envDefault:"100"`

	// PlanMaxRetries bounds retries of the planning collaborator before a
	// session is marked FAILED.
	PlanMaxRetries int `env:"PLAN_MAX_RETRIES" envDefault:"2"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "tutord.db")
}
