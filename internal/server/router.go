package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/lumenkind/playtrack-backend/internal/handlers"
	"github.com/lumenkind/playtrack-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName      string
	AuthMiddleware   *middleware.AuthMiddleware
	TrackingHandler  *handlers.TrackingHandler
	DashboardHandler *handlers.DashboardHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())

	// Tracking
	api.POST("/tracking/initialize", cfg.TrackingHandler.Initialize)
	api.POST("/tracking/:child_id/behavioral", cfg.TrackingHandler.RecordBehavioral)
	api.POST("/tracking/:child_id/emotional", cfg.TrackingHandler.RecordEmotional)
	api.POST("/tracking/:child_id/skill", cfg.TrackingHandler.UpdateSkill)
	api.POST("/tracking/:child_id/session-analysis", cfg.TrackingHandler.SessionAnalysis)
	api.GET("/tracking/:child_id/next-milestones", cfg.TrackingHandler.NextMilestones)
	api.GET("/tracking/:child_id/metrics/:session_id", cfg.TrackingHandler.SessionMetrics)

	// Dashboards / reports
	api.GET("/dashboard/:child_id", cfg.DashboardHandler.Dashboard)
	api.GET("/report/:child_id", cfg.DashboardHandler.Report)
	api.GET("/summary/:child_id", cfg.DashboardHandler.Summary)

	return router
}
