// Package v1 provides the read-only HTTP query API, version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"portraits/internal/domain/analysis"
	"portraits/internal/domain/reports"
	"portraits/internal/infrastructure/http/v1/handlers"
	"portraits/internal/infrastructure/http/v1/middleware"
	"portraits/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Directory loads the university and organization tables on first use
	Directory handlers.DirectoryProvider

	// Analyzer classifies records and evaluates cluster proposals
	Analyzer *analysis.Analyzer

	// Snapshots reads stored reports; a service without repository serves
	// empty lists
	Snapshots *reports.Service

	// Database is pinged by /health/ready; nil skips the check
	Database handlers.Pinger

	// Logger for request logging
	Logger *logger.Logger
}

// NewRouter creates and configures the gin router. Every route is GET.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	if cfg.Snapshots == nil {
		cfg.Snapshots = reports.NewService(nil)
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	base := handlers.NewBaseHandler(cfg.Directory)
	classifier := cfg.Analyzer.Classifier()

	healthHandler := handlers.NewHealthHandler(base, cfg.Database, classifier.Version())
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	directoryHandler := handlers.NewDirectoryHandler(base, classifier)
	identifierHandler := handlers.NewIdentifierHandler(base, classifier)
	analysisHandler := handlers.NewAnalysisHandler(base, cfg.Analyzer)
	snapshotHandler := handlers.NewSnapshotHandler(base, cfg.Snapshots)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/universities", directoryHandler.ListUniversities)
		v1.GET("/universities/:id", directoryHandler.GetUniversity)
		v1.GET("/organizations", directoryHandler.ListOrganizations)
		v1.GET("/organizations/search", directoryHandler.SearchOrganizations)
		v1.GET("/identifiers/:id", identifierHandler.Get)
		v1.GET("/clusters", analysisHandler.Clusters)
		v1.GET("/snapshots", snapshotHandler.List)
		v1.GET("/snapshots/:kind/latest", snapshotHandler.Latest)
	}

	return router
}
