package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/xapi-mis-backend/internal/data/aggregates"
	"github.com/yungbote/xapi-mis-backend/internal/observability"
	"github.com/yungbote/xapi-mis-backend/internal/platform/logger"
	"github.com/yungbote/xapi-mis-backend/internal/services"
)

type Services struct {
	Statement services.StatementService
	Learner   services.LearnerService
	Dashboard services.DashboardService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, clients Clients, repos Repos, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	base := aggregates.BaseDeps{
		DB:    db,
		Log:   log,
		Hooks: aggregates.NewObservabilityHooks(metrics, log),
	}
	ingest := aggregates.NewStatementIngestAggregate(aggregates.StatementIngestDeps{
		Base:       base,
		Learners:   repos.Learner,
		Statements: repos.Statement,
	})
	learnerAgg := aggregates.NewLearnerAggregate(aggregates.LearnerDeps{
		Base:       base,
		Learners:   repos.Learner,
		Statements: repos.Statement,
	})

	dashboard := services.NewDashboardService(db, log, repos.Learner, repos.Statement, clients.Cache, cfg.DashboardCacheTTL, metrics)
	return Services{
		Statement: services.NewStatementService(db, log, ingest, repos.Statement, dashboard, metrics),
		Learner:   services.NewLearnerService(db, log, repos.Learner, repos.Statement, learnerAgg, dashboard),
		Dashboard: dashboard,
	}
}
