package delivery

import (
	"time"

	"github.com/lasvegasedge/adtrack-clean-project-sub002/internal/delivery/middleware"
	"github.com/lasvegasedge/adtrack-clean-project-sub002/pkg/logger"
	"github.com/lasvegasedge/adtrack-clean-project-sub002/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type HTTPRouter struct {
	handlers *HTTPHandlers
	logger   *logger.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	timeout  time.Duration
}

// gatherer may be nil to expose the default registry
func NewHTTPRouter(handlers *HTTPHandlers, logger *logger.Logger, metrics *metrics.Metrics, gatherer prometheus.Gatherer, timeout time.Duration) *HTTPRouter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPRouter{
		handlers: handlers,
		logger:   logger,
		metrics:  metrics,
		gatherer: gatherer,
		timeout:  timeout,
	}
}

func (r *HTTPRouter) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.Recovery(r.logger))
	router.Use(middleware.Metrics(r.metrics))
	router.Use(middleware.Timeout(r.timeout))

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Content-Type", "X-Request-ID"}
	config.ExposeHeaders = []string{"X-Request-ID"}

	router.Use(cors.New(config))

	// Health endpoint
	router.GET("/health", r.handlers.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/", r.handlers.GetAPIInfo)
		v1.GET("", r.handlers.GetAPIInfo)

		ingest := v1.Group("/ingest")
		{
			ingest.POST("/run", r.handlers.IngestRun)
		}

		campaigns := v1.Group("/campaigns")
		{
			campaigns.GET("", r.handlers.ListCampaigns)
			campaigns.POST("", r.handlers.PushCampaigns)
			campaigns.GET("/summary", r.handlers.GetCampaignSummary)
		}

		rankings := v1.Group("/rankings")
		{
			rankings.GET("", r.handlers.GetRankings)
			rankings.POST("/compute", r.handlers.ComputeRankings)
		}

		export := v1.Group("/export")
		{
			export.POST("/run", r.handlers.ExportRun)
		}
	}

	// Prometheus metrics endpoint
	router.GET("/metrics", middleware.PrometheusHandler(r.gatherer))

	return router
}
