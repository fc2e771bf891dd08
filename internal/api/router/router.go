package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/prontocasa/assistant/internal/api/chat"
	httpmiddleware "github.com/prontocasa/assistant/internal/http/middleware"
	"github.com/prontocasa/assistant/internal/webchat"
	"github.com/prontocasa/assistant/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	ChatHandler        *chat.Handler
	WebchatHandler     *webchat.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/healthz", cfg.ChatHandler.HealthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/chat", func(r chi.Router) {
		r.Post("/", cfg.ChatHandler.Turn)
		r.Route("/{conversationID}", func(r chi.Router) {
			r.Get("/history", cfg.ChatHandler.History)
			r.Post("/confirm", cfg.ChatHandler.Confirm)
		})
	})

	if cfg.WebchatHandler != nil {
		r.Handle("/webchat/ws", cfg.WebchatHandler)
	}

	return r
}
