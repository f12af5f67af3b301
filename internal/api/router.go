package api

import (
	"github.com/chordgrid/chordgrid-api/internal/api/handlers"
	"github.com/chordgrid/chordgrid-api/internal/api/middleware"
	"github.com/chordgrid/chordgrid-api/internal/config"
	"github.com/chordgrid/chordgrid-api/internal/detect"
	"github.com/chordgrid/chordgrid-api/internal/metrics"
	"github.com/chordgrid/chordgrid-api/internal/services"
	"github.com/chordgrid/chordgrid-api/internal/store"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func SetupRouter(db *gorm.DB, cfg *config.Config, cloudwatch *metrics.Client, version string) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(middleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(middleware.SentryMiddleware())

	// Request tracking, structured logging and API metrics
	router.Use(middleware.RequestTracking(cloudwatch))

	// CORS middleware
	router.Use(middleware.CORS())

	// Health check
	healthHandler := handlers.NewHealthHandler(db)
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(version)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	// Analysis pipeline wiring
	analysisStore := store.NewAnalysisStore(db)
	beatDetector := detect.NewHTTPBeatDetector(cfg.BeatDetectorURL, cfg.DetectorTimeout())
	chordDetector := detect.NewHTTPChordDetector(cfg.ChordDetectorURL, cfg.DetectorTimeout())
	analysisService := services.NewAnalysisService(analysisStore, beatDetector, chordDetector, cloudwatch, cfg.NormalizerCacheSize)

	// Analysis API routes v1
	v1 := router.Group("/api/v1")
	{
		analysisHandler := handlers.NewAnalysisHandler(analysisService)
		v1.GET("/analyses/:recordingID", analysisHandler.GetAnalysis)
		v1.POST("/analyses/:recordingID/rebuild", analysisHandler.Rebuild)
		v1.GET("/analyses/:recordingID/grid", analysisHandler.GetGrid)
		v1.DELETE("/analyses/:recordingID", analysisHandler.DeleteAnalysis)

		correctionsHandler := handlers.NewCorrectionsHandler(analysisService)
		v1.PUT("/analyses/:recordingID/corrections", correctionsHandler.ApplyCorrection)
		v1.DELETE("/analyses/:recordingID/corrections", correctionsHandler.RemoveCorrection)
		v1.POST("/analyses/:recordingID/corrections/auto", correctionsHandler.AutoCorrect)
	}

	return router
}
