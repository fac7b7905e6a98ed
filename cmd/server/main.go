package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stablemind-ai/stablemind/internal/api"
	"github.com/stablemind-ai/stablemind/internal/config"
	"github.com/stablemind-ai/stablemind/internal/domain"
	"github.com/stablemind-ai/stablemind/internal/llm"
	"github.com/stablemind-ai/stablemind/internal/prompt"
	"github.com/stablemind-ai/stablemind/internal/rules"
	"github.com/stablemind-ai/stablemind/internal/service"
	"github.com/stablemind-ai/stablemind/internal/store"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	if err := config.Load(); err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// Rule tables are immutable per run; a missing required key halts here,
	// before any turn can execute.
	ruleSet, err := rules.Load(config.RulesDir())
	if err != nil {
		logger.Fatal("failed to load rule tables", zap.String("dir", config.RulesDir()), zap.Error(err))
	}
	logger.Info("rule tables loaded",
		zap.String("dir", config.RulesDir()),
		zap.Int("event_rules", len(ruleSet.EventEmotion)),
		zap.Int("rumination_window", ruleSet.Policy.RuminationWindowTurns))

	ctx := context.Background()

	var (
		personas     domain.PersonaStore
		observations domain.ObservationLog
		episodes     domain.EpisodeLog
		drift        domain.DriftSink
		pool         *pgxpool.Pool
	)

	switch backend := config.StoreBackend(); backend {
	case "postgres":
		dbURL := config.DatabaseURL()
		if dbURL == "" {
			logger.Fatal("DATABASE_URL is required for the postgres backend")
		}
		pool, err = pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			logger.Fatal("failed to ping database", zap.Error(err))
		}
		logger.Info("connected to database")

		personas = store.NewPostgresPersonaStore(pool)
		observations = store.NewPostgresObservationLog(pool)
		episodes = store.NewPostgresEpisodeLog(pool)
		drift = store.NewPostgresDriftSink(pool)

	case "file":
		dataDir := config.DataDir()
		personas = store.NewFilePersonaStore(dataDir)
		observations = store.NewFileObservationLog(dataDir)
		episodes = store.NewFileEpisodeLog(dataDir)
		drift = store.NewFileDriftSink(dataDir)
		logger.Info("using file store", zap.String("data_dir", dataDir))

	default:
		logger.Fatal("unknown STORE_BACKEND", zap.String("backend", backend))
	}

	generator, err := llm.NewClient(config.LLMProvider(), config.LLMAPIKey())
	if err != nil {
		logger.Warn("LLM client initialization failed, falling back to mock",
			zap.String("provider", config.LLMProvider()), zap.Error(err))
		generator = llm.NewMockClient()
	} else {
		logger.Info("LLM client initialized", zap.String("provider", config.LLMProvider()))
	}

	agent := service.NewAgentService(
		personas,
		observations,
		episodes,
		service.NewExtractService(ruleSet.Taxonomy, logger),
		service.NewEmotionService(logger),
		service.NewTraitService(logger),
		service.NewRuminationService(observations, drift, logger),
		prompt.NewBuilder(),
		generator,
		ruleSet,
		logger,
	)

	app := api.NewApp(agent, logger)

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:    addr,
		Handler: app.Router,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
