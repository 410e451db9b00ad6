package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"fleetops-backend/internal/config"
	"fleetops-backend/internal/cron"
	"fleetops-backend/internal/database"
	"fleetops-backend/internal/handlers"
	"fleetops-backend/internal/middleware"
	"fleetops-backend/internal/storage"
	"fleetops-backend/internal/telemetry"
)

func main() {
	// 1. Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Connect to PostgreSQL
	db := database.New(&cfg.DB)
	defer db.Close()

	// 3. Initialize file storage: R2 in production, local disk otherwise
	var fileStore storage.Store
	if cfg.Upload.R2AccountID != "" {
		fileStore, err = storage.NewR2Store(
			cfg.Upload.R2AccountID, cfg.Upload.R2AccessKey,
			cfg.Upload.R2SecretKey, cfg.Upload.R2Bucket, cfg.Upload.R2PublicURL,
		)
	} else {
		fileStore, err = storage.NewLocalStore(cfg.Upload.Dir, cfg.Upload.BaseURL)
	}
	if err != nil {
		log.Fatalf("Failed to initialize file storage: %v", err)
	}

	// 4. Set up router with global middleware
	sink := telemetry.NewPGSink(db.GetPool())

	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestAudit(sink))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:3001"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 5. Initialize handlers with their dependencies
	authHandler := handlers.NewAuthHandler(db, cfg.JWTSecret)
	dashboardHandler := handlers.NewDashboardHandler(db)
	vehicleHandler := handlers.NewVehicleHandler(db)
	serviceHandler := handlers.NewServiceHandler(db)
	challanHandler := handlers.NewChallanHandler(db)
	driverHandler := handlers.NewDriverHandler(db)
	uploadHandler := handlers.NewUploadHandler(fileStore)
	activityHandler := handlers.NewActivityHandler(db)
	notificationHandler := handlers.NewNotificationHandler(db)
	userMgmtHandler := handlers.NewUserManagementHandler(db)

	// Start the daily renewal scan
	notifier := cron.NewNotifier(db, cfg.NotifierSchedule)
	if err := notifier.Start(); err != nil {
		log.Fatalf("Failed to start renewal notifier: %v", err)
	}
	defer notifier.Stop()

	// 6. Public routes (no authentication required)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("FleetOps API"))
	})
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(db.Health())
	})

	// Auth routes are public but rate limited (~5 attempts/minute per IP)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(rate.Every(12*time.Second), 5))
		r.Post("/api/auth/register", authHandler.Register)
		r.Post("/api/auth/login", authHandler.Login)
	})

	// Serve uploaded files (local storage only; R2 paths redirect to the CDN)
	r.Get("/api/files/*", uploadHandler.ServeFile)

	// 7. Protected routes (require valid JWT)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))

		// Current user profile
		r.Get("/api/auth/me", authHandler.GetMe)

		// File upload
		r.Post("/api/upload", uploadHandler.Upload)

		// Dashboard (read-only, accessible to all authenticated users)
		r.Get("/api/dashboard/metrics", dashboardHandler.GetMetrics)
		r.Get("/api/dashboard/renewals", dashboardHandler.GetRenewalBuckets)
		r.Get("/api/dashboard/expiring", dashboardHandler.GetExpiryAlerts)
		r.Get("/api/dashboard/services", dashboardHandler.GetServiceStats)

		// Notifications (user-scoped, all authenticated users)
		r.Get("/api/notifications", notificationHandler.List)
		r.Get("/api/notifications/count", notificationHandler.UnreadCount)
		r.Patch("/api/notifications/read-all", notificationHandler.MarkAllRead)
		r.Patch("/api/notifications/{id}/read", notificationHandler.MarkRead)

		// Activity log (read-only)
		r.Get("/api/activity", activityHandler.List)

		// Read-only fleet endpoints, accessible to viewers
		r.Get("/api/vehicles", vehicleHandler.List)
		r.Get("/api/vehicles/export", vehicleHandler.Export)
		r.Get("/api/vehicles/{id}", vehicleHandler.GetByID)

		r.Get("/api/services", serviceHandler.List)
		r.Get("/api/services/{id}", serviceHandler.GetByID)

		r.Get("/api/challans", challanHandler.List)
		r.Get("/api/challans/summary", challanHandler.Summary)
		r.Get("/api/challans/export", challanHandler.Export)
		r.Get("/api/challans/{id}", challanHandler.GetByID)

		r.Get("/api/drivers", driverHandler.List)
		r.Get("/api/drivers/export", driverHandler.Export)
		r.Get("/api/drivers/{id}", driverHandler.GetByID)

		// Day-to-day write operations require operator role
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireMinRole("operator"))

			r.Post("/api/vehicles", vehicleHandler.Create)
			r.Put("/api/vehicles/{id}", vehicleHandler.Update)

			r.Post("/api/services", serviceHandler.Create)
			r.Patch("/api/services/{id}/milestones", serviceHandler.UpdateMilestones)
			r.Patch("/api/services/{id}/status", serviceHandler.UpdateStatus)

			r.Post("/api/challans", challanHandler.Create)
			r.Put("/api/challans/{id}", challanHandler.Update)

			r.Post("/api/drivers", driverHandler.Create)
			r.Put("/api/drivers/{id}", driverHandler.Update)
		})

		// Destructive operations restricted to admin role
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireMinRole("admin"))

			r.Delete("/api/vehicles/{id}", vehicleHandler.Delete)
			r.Post("/api/vehicles/batch-delete", vehicleHandler.BatchDelete)
			r.Delete("/api/services/{id}", serviceHandler.Delete)
			r.Delete("/api/challans/{id}", challanHandler.Delete)
			r.Delete("/api/drivers/{id}", driverHandler.Delete)
		})

		// User management restricted to super_admin
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireMinRole("super_admin"))

			r.Get("/api/users", userMgmtHandler.List)
			r.Patch("/api/users/{id}/role", userMgmtHandler.UpdateRole)
			r.Delete("/api/users/{id}", userMgmtHandler.Delete)
		})
	})

	// 8. Start server with graceful shutdown
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server started on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-done
	log.Println("Server stopped")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited properly")
}
