package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stablemind-ai/stablemind/internal/api/handlers"
	mw "github.com/stablemind-ai/stablemind/internal/api/middleware"
	"github.com/stablemind-ai/stablemind/internal/config"
	"github.com/stablemind-ai/stablemind/internal/domain"
	"github.com/stablemind-ai/stablemind/internal/llm"
	"github.com/stablemind-ai/stablemind/internal/service"
	"github.com/stablemind-ai/stablemind/internal/store"
	"go.uber.org/zap"
)

// App holds the router plus request metrics.
type App struct {
	Router *chi.Mux

	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

// NewApp assembles middleware, handlers and routes around the agent.
func NewApp(agent *service.AgentService, logger *zap.Logger) *App {
	sessionHandler := handlers.NewSessionHandler(agent)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		startTime: time.Now(),
	}

	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	r.Get("/health", healthHandler())
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1/sessions/{id}", func(r chi.Router) {
		r.Post("/turn", sessionHandler.Turn)
		r.Get("/state", sessionHandler.State)
		r.Get("/beliefs", sessionHandler.Beliefs)
		r.Post("/reset", sessionHandler.Reset)
	})

	return app
}

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.PersonaStore   = (*store.FilePersonaStore)(nil)
	_ domain.PersonaStore   = (*store.PostgresPersonaStore)(nil)
	_ domain.ObservationLog = (*store.FileObservationLog)(nil)
	_ domain.ObservationLog = (*store.PostgresObservationLog)(nil)
	_ domain.EpisodeLog     = (*store.FileEpisodeLog)(nil)
	_ domain.EpisodeLog     = (*store.PostgresEpisodeLog)(nil)
	_ domain.DriftSink      = (*store.FileDriftSink)(nil)
	_ domain.DriftSink      = (*store.PostgresDriftSink)(nil)
	_ domain.Generator      = (*llm.OpenAIClient)(nil)
	_ domain.Generator      = (*llm.MockClient)(nil)
)
