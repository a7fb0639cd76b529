package app

import (
	"github.com/yungbote/xapi-mis-backend/internal/http"
	httpH "github.com/yungbote/xapi-mis-backend/internal/http/handlers"
	"github.com/yungbote/xapi-mis-backend/internal/observability"
	"github.com/yungbote/xapi-mis-backend/internal/platform/logger"
)

type Handlers struct {
	Health    *httpH.HealthHandler
	Xapi      *httpH.XapiHandler
	Learner   *httpH.LearnerHandler
	Dashboard *httpH.DashboardHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    httpH.NewHealthHandler(),
		Xapi:      httpH.NewXapiHandler(services.Statement),
		Learner:   httpH.NewLearnerHandler(services.Learner),
		Dashboard: httpH.NewDashboardHandler(services.Dashboard),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *http.Server {
	return http.NewServer(http.RouterConfig{
		Log:              log,
		Metrics:          metrics,
		ServiceName:      cfg.Otel.ServiceName,
		CORSOrigins:      cfg.CORSAllowOrigins,
		RequestTimeout:   cfg.WriteTimeout,
		HealthHandler:    handlers.Health,
		XapiHandler:      handlers.Xapi,
		LearnerHandler:   handlers.Learner,
		DashboardHandler: handlers.Dashboard,
	}, http.ServerConfig{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
}
