package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clinicalopez/dashboard-api/internal/airtable"
	"github.com/clinicalopez/dashboard-api/internal/api/router"
	"github.com/clinicalopez/dashboard-api/internal/bookings"
	"github.com/clinicalopez/dashboard-api/internal/cache"
	"github.com/clinicalopez/dashboard-api/internal/calcom"
	appconfig "github.com/clinicalopez/dashboard-api/internal/config"
	"github.com/clinicalopez/dashboard-api/internal/conversation"
	"github.com/clinicalopez/dashboard-api/internal/n8n"
	obsmetrics "github.com/clinicalopez/dashboard-api/internal/observability/metrics"
	"github.com/clinicalopez/dashboard-api/internal/reporting"
	"github.com/clinicalopez/dashboard-api/internal/supabase"
	"github.com/clinicalopez/dashboard-api/internal/syncer"
	"github.com/clinicalopez/dashboard-api/pkg/logging"
)

func main() {
	// Local development convenience; the file is optional.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting dashboard API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	// Prometheus registry with process/runtime collectors plus our own.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	upstreamMetrics := obsmetrics.NewUpstreamMetrics(registry)

	rawCache := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.CacheTTL, logger)
	if rawCache == nil {
		logger.Info("redis not configured, raw-fetch caching disabled")
	}

	// Conversation log: prefer the direct Postgres connection, fall back to
	// the REST API when only the project URL and anon key are set.
	var messageStore conversation.MessageStore
	switch {
	case cfg.SupabaseDBURL != "":
		pool, err := pgxpool.New(context.Background(), cfg.SupabaseDBURL)
		if err != nil {
			logger.Error("failed to connect to conversation database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		messageStore = supabase.NewPGStore(pool, logger)
		logger.Info("conversation log wired via postgres")
	case cfg.SupabaseURL != "" && cfg.SupabaseAnonKey != "":
		messageStore = supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.MessagePageSize, logger)
		logger.Info("conversation log wired via REST")
	default:
		logger.Warn("conversation log not configured")
	}

	conversationSvc := conversation.NewService(messageStore, rawCache, upstreamMetrics, logger)

	var bookingStore reporting.BookingStore
	var bookingProvider bookings.Provider
	if cfg.CalcomConfigured() {
		calcomClient := calcom.NewClient(cfg.CalcomBaseURL, cfg.CalcomAPIKey, logger)
		bookingStore = calcomClient
		bookingProvider = calcomClient
	} else {
		logger.Warn("scheduling provider not configured")
	}

	var clientStore reporting.ClientStore
	var recordStore syncer.RecordStore
	if cfg.AirtableConfigured() {
		airtableClient := airtable.NewClient("", cfg.AirtableAPIKey, cfg.AirtableBaseID, cfg.AirtableTableName, logger)
		clientStore = airtableClient
		recordStore = airtableClient
	} else {
		logger.Warn("client roster not configured")
	}

	var executionStore reporting.ExecutionStore
	if cfg.N8NConfigured() {
		executionStore = n8n.NewClient(cfg.N8NAPIURL, cfg.N8NAPIKey, cfg.N8NWorkflowID, logger)
	} else {
		logger.Warn("workflow engine not configured")
	}

	reportingSvc := reporting.NewService(
		conversationSvc,
		bookingStore,
		clientStore,
		executionStore,
		rawCache,
		upstreamMetrics,
		logger,
	)

	syncSvc := syncer.NewService(conversationSvc, recordStore, logger)

	r := router.New(&router.Config{
		Logger:              logger,
		ConversationHandler: conversation.NewHandler(conversationSvc, logger),
		ReportingHandler:    reporting.NewHandler(reportingSvc, logger),
		BookingsHandler:     bookings.NewHandler(bookingProvider, logger),
		SyncHandler:         syncer.NewHandler(syncSvc, logger),
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins:  splitOrigins(cfg.CORSAllowedOrigins),
		DashboardJWTSecret:  cfg.DashboardJWTSecret,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
