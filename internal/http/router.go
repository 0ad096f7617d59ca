package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/docintel-backend/internal/http/handlers"
	httpMW "github.com/yungbote/docintel-backend/internal/http/middleware"
	"github.com/yungbote/docintel-backend/internal/observability"
	"github.com/yungbote/docintel-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	AllowOrigin []string
	Metrics     *observability.Metrics

	HealthHandler   *httpH.HealthHandler
	CategoryHandler *httpH.CategoryHandler
	FileHandler     *httpH.FileHandler
	NewsHandler     *httpH.NewsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowOrigin))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	protected := r.Group("/api")
	protected.Use(httpMW.RequireUser())
	{
		// Categories
		if cfg.CategoryHandler != nil {
			protected.POST("/categories", cfg.CategoryHandler.Create)
			protected.GET("/categories", cfg.CategoryHandler.List)
			protected.DELETE("/categories/:id", cfg.CategoryHandler.Delete)
		}

		// Files
		if cfg.FileHandler != nil {
			protected.POST("/files", cfg.FileHandler.Upload)
			protected.GET("/files", cfg.FileHandler.List)
			protected.GET("/files/:id", cfg.FileHandler.Get)
			protected.GET("/files/:id/download", cfg.FileHandler.Download)
			protected.GET("/files/:id/highlighted", cfg.FileHandler.Highlighted)
			protected.DELETE("/files/:id", cfg.FileHandler.Delete)
		}

		// News
		if cfg.NewsHandler != nil {
			protected.GET("/news", cfg.NewsHandler.List)
			protected.POST("/news/reset-history", cfg.NewsHandler.ResetHistory)
		}
	}

	return r
}
