package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/alex-user-go/stayscout/internal/config"
	"github.com/alex-user-go/stayscout/internal/evaluate"
	"github.com/alex-user-go/stayscout/internal/handler"
	"github.com/alex-user-go/stayscout/internal/middleware"
	"github.com/alex-user-go/stayscout/internal/obs"
	"github.com/alex-user-go/stayscout/internal/ratelimit"
	"github.com/alex-user-go/stayscout/internal/search"
	"github.com/alex-user-go/stayscout/internal/source"
	"github.com/alex-user-go/stayscout/internal/source/bookingapi"
	"github.com/alex-user-go/stayscout/internal/source/demo"
	"github.com/alex-user-go/stayscout/internal/source/scrape"
	"github.com/alex-user-go/stayscout/internal/source/serphotels"
)

// Run initializes and runs the application.
func Run() error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()
	metrics := obs.NewMetrics(logger)

	adapters := buildAdapters(cfg, logger)

	var model llms.Model
	if cfg.OpenAIAPIKey != "" {
		llm, err := openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel("gpt-3.5-turbo"),
		)
		if err != nil {
			logger.Error("failed to create evaluation model, falling back to heuristic scoring", "error", err)
		} else {
			model = llm
		}
	} else {
		logger.Info("no OPENAI_API_KEY set, using heuristic scoring only")
	}

	evaluator := evaluate.New(
		model,
		cfg.EvalTimeout,
		evaluate.NewIntervalPacer(cfg.EvalPacingInterval),
		cfg.EvalPoolSize,
		metrics,
		logger,
	)

	orchestrator := search.NewOrchestrator(
		adapters,
		evaluator,
		cfg.AdapterTimeout,
		cfg.SearchBudget,
		cfg.MaxTotalProperties,
		metrics,
		logger,
	)

	limiter := ratelimit.New(cfg.RateLimit, cfg.RateLimitWindow)
	defer limiter.Close()

	h := handler.New(orchestrator, limiter, metrics, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /search", h.SearchHandler)
	mux.HandleFunc("GET /healthz", obs.HealthHandler(logger))
	mux.HandleFunc("GET /metrics", metrics.MetricsHandler())

	wrappedHandler := middleware.Logging(logger)(mux)

	// No WriteTimeout: the search endpoint streams for up to the whole
	// search budget.
	srv := &http.Server{
		Addr:        cfg.Addr,
		Handler:     wrappedHandler,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "addr", srv.Addr, "sources", len(adapters))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
		return err
	}

	logger.Info("server stopped")
	return nil
}

// buildAdapters assembles the active source set from the configured
// toggles. Demo mode, explicit or implied by having no usable real
// source, serves fixtures so the pipeline stays exercisable end to end.
func buildAdapters(cfg config.Config, logger *slog.Logger) []source.Adapter {
	if cfg.DemoMode {
		return []source.Adapter{demo.New()}
	}

	var adapters []source.Adapter
	if cfg.EnableScraper {
		adapters = append(adapters, scrape.New(
			cfg.ScraperHeadless,
			cfg.MaxPropertiesPerSource,
			cfg.ScrapeDelayMin,
			cfg.ScrapeDelayMax,
			logger,
		))
		adapters = append(adapters, scrape.NewAirbnb(
			cfg.ScraperHeadless,
			cfg.MaxPropertiesPerSource,
			cfg.ScrapeDelayMin,
			cfg.ScrapeDelayMax,
			logger,
		))
	}
	if cfg.EnableBookingAPI && cfg.RapidAPIKey != "" {
		adapters = append(adapters, bookingapi.New(
			cfg.RapidAPIKey,
			"",
			cfg.MaxPropertiesPerSource,
			cfg.AdapterTimeout,
			logger,
		))
	}
	if cfg.EnableSerpAPI && cfg.SerpAPIKey != "" {
		adapters = append(adapters, serphotels.New(
			cfg.SerpAPIKey,
			"",
			cfg.MaxPropertiesPerSource,
			cfg.AdapterTimeout,
			logger,
		))
	}

	if len(adapters) == 0 {
		logger.Warn("no real sources configured, falling back to demo fixtures")
		adapters = append(adapters, demo.New())
	}
	return adapters
}
