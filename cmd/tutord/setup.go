package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/sandevgo/tutord/internal/config"
	"github.com/sandevgo/tutord/internal/providers/llm"
	"github.com/sandevgo/tutord/internal/service/chat"
	"github.com/sandevgo/tutord/internal/service/memory"
	"github.com/sandevgo/tutord/internal/service/plan"
	"github.com/sandevgo/tutord/internal/service/session"
	"github.com/sandevgo/tutord/internal/service/tutor"
	"github.com/sandevgo/tutord/internal/storage/sqlite"
	"github.com/sandevgo/tutord/internal/transport/httpapi"
	"github.com/sandevgo/tutord/pkg/log"
	"github.com/sandevgo/tutord/pkg/srv"
)

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// init env
	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	appCfg := config.NewAppConfig(ctx)
	llmCfg := config.NewLLMConfig(ctx)
	serverCfg := config.NewServerConfig(ctx)

	// Storage
	db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	store := sqlite.NewStore(db)
	services = append(services, srv.NewCleanup(store.Close))

	// Collaborator providers, one per concern so models can differ.
	plannerProvider, err := llm.NewProvider(ctx, llmCfg, llmCfg.PlannerModel)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize planner provider")
	}
	tutorProvider, err := llm.NewProvider(ctx, llmCfg, llmCfg.TutorModel)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize tutor provider")
	}
	summaryProvider, err := llm.NewProvider(ctx, llmCfg, llmCfg.SummaryModel)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize summary provider")
	}

	// Engine services
	planner := plan.NewService(plannerProvider, store, appCfg.PlanMaxRetries)
	sessions := session.NewService(ctx, store, planner)
	buffer := memory.NewBuffer(memory.NewLLMSummarizer(summaryProvider), appCfg.MemoryBufferSize)
	orchestrator := chat.NewOrchestrator(store, tutor.New(tutorProvider), buffer,
		chat.NewResponsePlanner(appCfg.BurstTokenThreshold))

	// HTTP transport
	handler := httpapi.NewHandler(sessions, orchestrator, store)
	services = append(services, httpapi.NewServer(serverCfg, handler))

	return services
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
