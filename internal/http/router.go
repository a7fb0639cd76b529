package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/xapi-mis-backend/internal/http/handlers"
	httpMW "github.com/yungbote/xapi-mis-backend/internal/http/middleware"
	"github.com/yungbote/xapi-mis-backend/internal/observability"
	"github.com/yungbote/xapi-mis-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	CORSOrigins    []string
	RequestTimeout time.Duration

	XapiHandler      *httpH.XapiHandler
	LearnerHandler   *httpH.LearnerHandler
	DashboardHandler *httpH.DashboardHandler
	HealthHandler    *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName(cfg.ServiceName)))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log, "/health-check"))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(httpMW.RequestTimeout(cfg.RequestTimeout))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/health-check", cfg.HealthHandler.HealthCheck)
	}

	// xAPI ingestion and query (public for external systems)
	if cfg.XapiHandler != nil {
		r.POST("/xapi/statements", cfg.XapiHandler.Store)
		r.GET("/xapi/statements", cfg.XapiHandler.Index)
	}

	// Dashboard
	if cfg.DashboardHandler != nil {
		r.GET("/dashboard", cfg.DashboardHandler.Get)
	}

	// Learner management
	if cfg.LearnerHandler != nil {
		learners := r.Group("/learners")
		learners.GET("", cfg.LearnerHandler.List)
		learners.POST("", cfg.LearnerHandler.Create)
		learners.GET("/:learner_id", cfg.LearnerHandler.Show)
		learners.PUT("/:learner_id", cfg.LearnerHandler.Update)
		learners.PATCH("/:learner_id", cfg.LearnerHandler.Update)
		learners.DELETE("/:learner_id", cfg.LearnerHandler.Delete)
	}

	return r
}

func serviceName(name string) string {
	if name == "" {
		return observability.DefaultServiceName
	}
	return name
}
