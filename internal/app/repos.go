package app

import (
	"gorm.io/gorm"

	learnerrepo "github.com/yungbote/xapi-mis-backend/internal/data/repos/learner"
	xapirepo "github.com/yungbote/xapi-mis-backend/internal/data/repos/xapi"
	"github.com/yungbote/xapi-mis-backend/internal/platform/logger"
)

type Repos struct {
	Learner   learnerrepo.LearnerRepo
	Statement xapirepo.StatementRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Learner:   learnerrepo.NewLearnerRepo(db, log),
		Statement: xapirepo.NewStatementRepo(db, log),
	}
}
