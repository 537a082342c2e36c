package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clinicalopez/dashboard-api/internal/bookings"
	"github.com/clinicalopez/dashboard-api/internal/conversation"
	httpmiddleware "github.com/clinicalopez/dashboard-api/internal/http/middleware"
	"github.com/clinicalopez/dashboard-api/internal/reporting"
	"github.com/clinicalopez/dashboard-api/internal/syncer"
	"github.com/clinicalopez/dashboard-api/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	ConversationHandler *conversation.Handler
	ReportingHandler    *reporting.Handler
	BookingsHandler     *bookings.Handler
	SyncHandler         *syncer.Handler
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string
	DashboardJWTSecret  string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
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

	// Public endpoints (health checks, metrics)
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Dashboard API, behind session auth when a secret is configured
	r.Route("/api", func(api chi.Router) {
		api.Use(httpmiddleware.DashboardJWT(cfg.DashboardJWTSecret))

		if cfg.ConversationHandler != nil {
			api.Get("/conversations", cfg.ConversationHandler.List)
			api.Get("/conversations/{sessionID}", cfg.ConversationHandler.Detail)
		}

		if cfg.ReportingHandler != nil {
			api.Get("/service-metrics", cfg.ReportingHandler.ServiceMetrics)
			api.Get("/stats", cfg.ReportingHandler.Stats)
			api.Get("/clients", cfg.ReportingHandler.Clients)
			api.Get("/n8n-metrics", cfg.ReportingHandler.N8NMetrics)
		}

		if cfg.SyncHandler != nil {
			api.Get("/sync", cfg.SyncHandler.Preview)
			api.Post("/sync", cfg.SyncHandler.Run)
		}

		if cfg.BookingsHandler != nil {
			api.Route("/bookings", func(b chi.Router) {
				b.Get("/", cfg.BookingsHandler.List)
				b.Post("/", cfg.BookingsHandler.Create)
				b.Get("/event-types", cfg.BookingsHandler.EventTypes)
				b.Get("/slots", cfg.BookingsHandler.Slots)
				b.Post("/{bookingID}/cancel", cfg.BookingsHandler.Cancel)
				b.Post("/{bookingID}/reschedule", cfg.BookingsHandler.Reschedule)
			})
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok","time":"` + time.Now().UTC().Format(time.RFC3339) + `"}`))
}
