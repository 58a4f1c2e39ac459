package main

import (
  "context"
  "fmt"
  "os"
  "github.com/lumenkind/playtrack-backend/internal/analysis"
  "github.com/lumenkind/playtrack-backend/internal/clients/redis"
  "github.com/lumenkind/playtrack-backend/internal/db"
  "github.com/lumenkind/playtrack-backend/internal/handlers"
  "github.com/lumenkind/playtrack-backend/internal/logger"
  "github.com/lumenkind/playtrack-backend/internal/middleware"
  "github.com/lumenkind/playtrack-backend/internal/observability"
  "github.com/lumenkind/playtrack-backend/internal/server"
  "github.com/lumenkind/playtrack-backend/internal/services"
  "github.com/lumenkind/playtrack-backend/internal/store"
  "github.com/lumenkind/playtrack-backend/internal/utils"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Env
  log.Info("Loading environment variables from main...")
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  serviceName := utils.GetEnv("SERVICE_NAME", "playtrack-backend", log)
  storeBackend := utils.GetEnv("STORE_BACKEND", "postgres", log)
  catalogPath := utils.GetEnv("MILESTONE_CATALOG_PATH", "", log)

  // Tracing
  otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
    ServiceName: serviceName,
    Environment: os.Getenv("APP_ENV"),
    Version:     os.Getenv("APP_VERSION"),
  })
  defer otelShutdown(context.Background())

  // Store
  log.Info("Setting up store from main...", "backend", storeBackend)
  var trackingStore store.Store
  if storeBackend == "memory" {
    trackingStore = store.NewMemoryStore()
  } else {
    postgresService, err := db.NewPostgresService(log)
    if err != nil {
      log.Fatal("Postgres init failed", "error", err)
    }
    if err = postgresService.AutoMigrateAll(); err != nil {
      log.Fatal("Postgres auto migration failed", "error", err)
    }
    trackingStore = store.NewGormStore(postgresService.DB(), log)
  }

  // Milestone catalog
  catalog := analysis.DefaultCatalog()
  if catalogPath != "" {
    loaded, err := analysis.LoadCatalog(catalogPath)
    if err != nil {
      log.Warn("Milestone catalog load failed, using built-in defaults", "path", catalogPath, "error", err)
    } else {
      catalog = loaded
    }
  }

  // Metrics bus (optional)
  metricsBus, err := redis.NewMetricsBus(log)
  if err != nil {
    log.Warn("Redis metrics bus unavailable, session metrics stay local", "error", err)
    metricsBus = nil
  }

  // Services
  log.Info("Setting up services from main...")
  trackingService := services.NewProgressTrackingService(trackingStore, catalog, analysis.DefaultConfig(), log, metricsBus)

  // Handlers
  log.Info("Setting up handlers from main...")
  trackingHandler := handlers.NewTrackingHandler(log, trackingService)
  dashboardHandler := handlers.NewDashboardHandler(log, trackingService)

  // Middleware
  log.Info("Setting up middleware from main...")
  authMiddleware := middleware.NewAuthMiddleware(log, jwtSecretKey)

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    ServiceName:      serviceName,
    AuthMiddleware:   authMiddleware,
    TrackingHandler:  trackingHandler,
    DashboardHandler: dashboardHandler,
  })

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Warn("Server failed: %v", err)
  }
}
