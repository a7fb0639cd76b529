package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
)

var StatementIngestAggregateContract = Contract{
	Name:       "Xapi.StatementIngestAggregate",
	TxOwner:    TxOwnedByAggregate,
	Tables:     []string{"learner", "xapi_statement"},
	UniqueKeys: []string{"xapi_statement.statement_id", "learner.email"},
	Notes:      "Resolves the actor's learner and stores the statement in one transaction; a duplicate statement id leaves no trace.",
}

// StatementIngestAggregate owns the learner-resolution plus statement-insert
// unit of work.
//
// Failures return *aggregates.Error with CodeConflict for an already stored
// statement id, CodeValidation for unusable input, otherwise CodeInternal or
// CodeRetryable.
type StatementIngestAggregate interface {
	Aggregate

	Ingest(ctx context.Context, in IngestStatementInput) (IngestStatementResult, error)
}

type IngestStatementInput struct {
	StatementID string
	ActorEmail  string
	// ActorName is only used when a learner has to be created.
	ActorName  *string
	Verb       string
	ObjectType string
	ObjectID   string
	ObjectName *string
	Timestamp  time.Time
	Raw        []byte
}

type IngestStatementResult struct {
	StatementRowID uuid.UUID
	LearnerRowID   uuid.UUID
	LearnerRef     string
	LearnerCreated bool
	StoredAt       time.Time
}
