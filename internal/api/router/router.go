package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/movne-global/sales-ai-platform/internal/conversation"
	httpmiddleware "github.com/movne-global/sales-ai-platform/internal/http/middleware"
	"github.com/movne-global/sales-ai-platform/internal/knowledge"
	"github.com/movne-global/sales-ai-platform/internal/leads"
	"github.com/movne-global/sales-ai-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	ConversationHandler *conversation.Handler
	LeadsHandler        *leads.Handler
	KnowledgeHandler    *knowledge.Handler
	AdminAuthSecret     string
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string
	RateLimitPerSecond  float64
	RateLimitBurst      int
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
	if cfg.RateLimitPerSecond > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}

		if cfg.ConversationHandler != nil {
			public.Route("/conversations", func(r chi.Router) {
				r.Post("/start", cfg.ConversationHandler.Start)
				r.Post("/message", cfg.ConversationHandler.Message)
				r.Get("/{conversationID}/history", cfg.ConversationHandler.History)
			})
		}
	})

	// Admin routes (protected by HMAC JWT)
	if cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))

			if cfg.LeadsHandler != nil {
				admin.Route("/leads", func(r chi.Router) {
					r.Get("/", cfg.LeadsHandler.ListLeads)
					r.Get("/{leadID}", cfg.LeadsHandler.GetLead)
					r.Patch("/{leadID}/status", cfg.LeadsHandler.UpdateStatus)
				})
			}

			if cfg.KnowledgeHandler != nil {
				admin.Route("/knowledge", func(r chi.Router) {
					r.Get("/{topic}", cfg.KnowledgeHandler.GetDocuments)
					r.Post("/{topic}", cfg.KnowledgeHandler.AppendDocuments)
					r.Put("/{topic}", cfg.KnowledgeHandler.ReplaceDocuments)
				})
			}
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
