package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/gset/fibertrack/backend/src/config"
	"github.com/gset/fibertrack/backend/src/database"
	"github.com/gset/fibertrack/backend/src/handlers"
	"github.com/gset/fibertrack/backend/src/logger"
	"github.com/gset/fibertrack/backend/src/processors"
	"github.com/gset/fibertrack/backend/src/security"
	"github.com/gset/fibertrack/backend/src/services"
	"github.com/gset/fibertrack/backend/src/utils"
	"github.com/patrickmn/go-cache"
)

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("FiberTrack backend server starting...")

	if config.Cfg.AuthDisabled {
		logger.L.Warn("Authentication is disabled. Every request runs as an anonymous user.")
	} else if len(config.Cfg.JWTSecret) < 32 {
		stdlog.Fatalf("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
	}

	logger.L.Info("Initializing data loaders...")
	if err := utils.InitTechnicianDirectory(config.Cfg.TechnicianDirectoryPath); err != nil {
		logger.L.Error("Failed to load technician directory", "error", err)
	}
	priceDefaults, err := services.LoadPriceGridFile(config.Cfg.PriceGridPath)
	if err != nil {
		logger.L.Error("Failed to load price grid file, using built-in grid", "error", err)
		priceDefaults = services.DefaultPriceGrid()
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing report cache...")
	reportCache := cache.New(config.Cfg.ReportCacheTTL, services.CacheCleanupInterval)
	logger.L.Info("Report cache initialized.")

	logger.L.Info("Initializing services and handlers...")
	authService := security.NewAuthService(config.Cfg.JWTSecret)
	notifier := services.NewNotificationService()
	priceService := services.NewPriceGridService(database.DB, priceDefaults, reportCache)
	reportService := services.NewReportService(database.DB, processors.NewAggregator(), reportCache, config.Cfg.ReportCacheTTL)
	batchService := services.NewBatchService(database.DB, reportService)
	importService := services.NewImportService(database.DB, priceService, reportService, notifier, services.ImportOptions{
		DuplicatePolicy: config.Cfg.DuplicateImportPolicy,
		TechShareRatio:  config.Cfg.TechShareRatio,
	})

	importHandler := handlers.NewImportHandler(importService, batchService, config.Cfg.MaxUploadSizeBytes)
	reportHandler := handlers.NewReportHandler(reportService)
	priceHandler := handlers.NewPriceHandler(priceService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("POST /api/imports", importHandler.HandleUpload)
	apiRouter.HandleFunc("GET /api/imports", importHandler.HandleListImports)
	apiRouter.HandleFunc("GET /api/imports/{id}", importHandler.HandleGetImport)
	apiRouter.HandleFunc("DELETE /api/imports/{id}", importHandler.HandleDeleteImport)
	apiRouter.HandleFunc("GET /api/imports/{id}/rejections", importHandler.HandleListRejections)
	apiRouter.HandleFunc("PATCH /api/rejections/{id}", importHandler.HandleUpdateRejection)

	apiRouter.HandleFunc("GET /api/reports/interventions", reportHandler.HandleGetInterventionRollups)
	apiRouter.HandleFunc("GET /api/reports/interventions/export", reportHandler.HandleExportInterventions)
	apiRouter.HandleFunc("GET /api/reports/tracking", reportHandler.HandleGetTrackingRollups)
	apiRouter.HandleFunc("GET /api/reports/summary", reportHandler.HandleGetSummary)

	apiRouter.HandleFunc("GET /api/price-grid", priceHandler.HandleGetPriceGrid)
	apiRouter.HandleFunc("PUT /api/price-grid/{code}", priceHandler.HandlePutPrice)
	apiRouter.HandleFunc("DELETE /api/price-grid/{code}", priceHandler.HandleDeletePrice)

	rootMux.Handle("/api/", handlers.AuthMiddleware(authService, config.Cfg.AuthDisabled)(apiRouter))

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "FiberTrack backend is running"})
		} else if !strings.HasPrefix(r.URL.Path, "/api/") {
			logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
			http.NotFound(w, r)
		}
	})

	logger.L.Info("Applying global middleware...")
	corsMiddleware := handlers.CORSMiddleware(config.Cfg.AllowedOrigins)
	rateLimit := handlers.RateLimitMiddleware(config.Cfg.RateLimitRPS, config.Cfg.RateLimitBurst)
	finalHandler := corsMiddleware(rateLimit(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
