// Package main is the entry point for the CityCare complaint backend server.
// It provides a REST API for civic-complaint submission, tracking, and
// administration: citizens file complaints against municipal issues and
// administrators triage, assign, and resolve them.
//
// Architecture:
//   - Complaints live in PostgreSQL; every mutation is a single atomic,
//     version-bumping statement
//   - Identity and role claims come from the external identity directory;
//     the server never stores credentials
//   - Attachments are URLs into the external media CDN, never raw bytes
//   - Lifecycle mutations are published to a Redis Stream and summary
//     statistics are cached in Redis
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/citycare/complaint-server/internal/config"
	"github.com/citycare/complaint-server/internal/database"
	"github.com/citycare/complaint-server/internal/events"
	"github.com/citycare/complaint-server/internal/handlers"
	"github.com/citycare/complaint-server/internal/identity"
	"github.com/citycare/complaint-server/internal/middleware"
	"github.com/citycare/complaint-server/internal/services"
	"github.com/citycare/complaint-server/internal/store"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

func main() {
	// Initialize structured logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	sugar := logger.Sugar()

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalf("Failed to load config: %v", err)
	}

	sugar.Infow("Starting CityCare Complaint Server",
		"port", cfg.Port,
		"env", cfg.Environment,
	)

	// Initialize database connection pool and apply the bootstrap schema
	db, err := database.NewPool(cfg.DatabaseURL)
	if err != nil {
		sugar.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Bootstrap(context.Background(), db); err != nil {
		sugar.Fatalf("Failed to bootstrap schema: %v", err)
	}

	// Redis is optional: without it the event stream and stats cache are
	// disabled, everything else works.
	var publisher *events.Publisher
	redisClient, err := events.NewRedisClient(cfg.RedisURL)
	if err != nil {
		sugar.Warnw("Redis unavailable, events and stats cache disabled", "error", err)
	} else {
		defer redisClient.Close()
		publisher = events.NewPublisher(redisClient, sugar)
	}

	// Identity directory: HTTP client in deployments, in-memory fake for
	// local development without a provider.
	var directory identity.Directory
	if cfg.DirectoryBaseURL != "" {
		directory = identity.NewClient(cfg.DirectoryBaseURL, cfg.DirectorySecret)
	} else {
		sugar.Warn("DIRECTORY_BASE_URL not set, using in-memory identity directory")
		directory = identity.NewFake(identity.User{
			ID:    "dev-admin",
			Email: "admin@citycare.local",
			Role:  identity.RoleAdmin,
		})
	}

	// Initialize services
	complaintStore := store.NewComplaintStore(db, sugar)
	auditSvc := services.NewAuditService(db, sugar)
	lifecycle := services.NewLifecycleEngine(complaintStore, publisher, auditSvc, sugar)
	complaintSvc := services.NewComplaintService(complaintStore, lifecycle, publisher, auditSvc, sugar)
	adminSvc := services.NewAdminService(complaintStore, lifecycle, publisher, auditSvc, sugar)
	querySvc := services.NewQueryService(complaintStore, redisClient, sugar)
	statsWorker := services.NewStatsWorker(querySvc, sugar)

	// Start background stats worker (keeps the summary cache warm)
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go statsWorker.Start(workerCtx, time.Duration(cfg.StatsRefreshInterval)*time.Minute)

	// Initialize handlers
	complaintHandler := handlers.NewComplaintHandler(complaintSvc, querySvc, sugar)
	adminHandler := handlers.NewAdminHandler(adminSvc, querySvc, auditSvc, sugar)
	rosterHandler := handlers.NewRosterHandler(directory, sugar)
	healthHandler := handlers.NewHealthHandler(db, sugar)

	// Build router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Rate limiting
	r.Use(middleware.RateLimit(cfg.RateLimitRPM))

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", healthHandler.Check)
		r.Get("/health/ready", healthHandler.Ready)

		// Citizen-facing complaint endpoints
		r.Route("/complaints", func(r chi.Router) {
			r.Get("/stats", complaintHandler.Stats) // public summary counts

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth(cfg.JWTSecret))
				r.Get("/", complaintHandler.List)
				r.Post("/", complaintHandler.Create)
				r.Get("/my", complaintHandler.My)
				r.Get("/{id}", complaintHandler.Get)
				r.Put("/{id}", complaintHandler.Update)
				r.Delete("/{id}", complaintHandler.Delete)
			})
		})

		// Admin endpoints (role claim checked against the directory)
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAuth(cfg.JWTSecret))
			r.Use(middleware.RequireAdmin(directory, sugar))

			r.Get("/stats", adminHandler.Stats)
			r.Get("/audit", adminHandler.Audit)

			r.Route("/complaints", func(r chi.Router) {
				r.Get("/", adminHandler.List)
				r.Post("/bulk-update", adminHandler.BulkUpdate)
				r.Patch("/{id}/status", adminHandler.UpdateStatus)
				r.Patch("/{id}/assign", adminHandler.Assign)
				r.Delete("/{id}", adminHandler.Delete)
			})

			r.Route("/admins", func(r chi.Router) {
				r.Get("/", rosterHandler.List)
				r.Post("/", rosterHandler.Create)
				r.Delete("/{userId}", rosterHandler.Remove)
			})
		})
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sugar.Infof("Server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	sugar.Info("Shutting down gracefully...")
	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		sugar.Fatalf("Forced shutdown: %v", err)
	}

	sugar.Info("Server stopped")
}
