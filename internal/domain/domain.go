package domain

import (
	"github.com/yungbote/xapi-mis-backend/internal/domain/learner"
	"github.com/yungbote/xapi-mis-backend/internal/domain/xapi"
)

type (
	Learner                   = learner.Learner
	LearnerWithStatementCount = learner.WithStatementCount
	XapiStatement             = xapi.Statement
	VerbCount                 = xapi.VerbCount
	DailyCount                = xapi.DailyCount
	StatementFilter           = xapi.Filter
)

const (
	LearnerStatusActive   = learner.StatusActive
	LearnerStatusInactive = learner.StatusInactive
)
