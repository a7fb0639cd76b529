package aggregates

import (
	"context"

	"github.com/google/uuid"
	"github.com/yungbote/xapi-mis-backend/internal/domain/learner"
)

var LearnerAggregateContract = Contract{
	Name:       "Learner.LearnerAggregate",
	TxOwner:    TxOwnedByAggregate,
	Tables:     []string{"learner", "xapi_statement"},
	UniqueKeys: []string{"learner.learner_id", "learner.email"},
	Notes:      "Keeps learner_id and email unique across manual edits and removes owned statements with the learner.",
}

// LearnerAggregate owns manual learner writes.
//
// Uniqueness failures return CodeValidation with the offending field, an
// unknown learner returns CodeNotFound.
type LearnerAggregate interface {
	Aggregate

	Create(ctx context.Context, in LearnerInput) (*learner.Learner, error)
	Update(ctx context.Context, learnerRef string, in LearnerInput) (*learner.Learner, error)
	Delete(ctx context.Context, learnerRef string) (DeleteLearnerResult, error)
}

// LearnerInput is an already validated management form.
type LearnerInput struct {
	LearnerID string
	Name      string
	Email     string
	Phone     *string
	Notes     *string
	Status    string
}

type DeleteLearnerResult struct {
	LearnerRowID      uuid.UUID
	StatementsRemoved int64
}
