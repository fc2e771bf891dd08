package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/prontocasa/assistant/internal/api/chat"
	"github.com/prontocasa/assistant/internal/api/router"
	"github.com/prontocasa/assistant/internal/app/bootstrap"
	"github.com/prontocasa/assistant/internal/assistant"
	appconfig "github.com/prontocasa/assistant/internal/config"
	"github.com/prontocasa/assistant/internal/observability/metrics"
	"github.com/prontocasa/assistant/internal/webchat"
	"github.com/prontocasa/assistant/pkg/logging"
)

func main() {
	// .env is a dev convenience; absence is normal in production.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting prontocasa assistant API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	gazetteer := bootstrap.LoadGazetteer(cfg, logger)
	tariffs := bootstrap.LoadTariffTable(cfg, logger)
	historyStore := bootstrap.BuildHistoryStore(ctx, cfg, logger)
	leadRepo, closeRepo := bootstrap.BuildLeadRepository(ctx, cfg, logger)
	defer closeRepo()

	var llm assistant.LLMClient
	if cfg.GeminiAPIKey != "" {
		client, err := assistant.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Error("failed to create gemini client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		llm = client
	} else {
		logger.Warn("GEMINI_API_KEY not set, chat turns will degrade to the unavailable reply")
	}

	turnMetrics := metrics.NewTurnMetrics(prometheus.DefaultRegisterer)
	orchestrator := assistant.NewOrchestrator(
		llm,
		cfg.GeminiModel,
		gazetteer,
		tariffs,
		assistant.NewImageResolver(logger),
		logger,
		turnMetrics,
		assistant.WithModelTimeout(cfg.ModelTimeout),
	)

	chatHandler := chat.NewHandler(orchestrator, historyStore, leadRepo, logger)
	webchatHandler := webchat.NewHandler(orchestrator, historyStore, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		ChatHandler:        chatHandler,
		WebchatHandler:     webchatHandler,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: []string{"*"},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // streamed turns outlive a normal request
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
