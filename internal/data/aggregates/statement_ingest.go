package aggregates

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	learnerrepo "github.com/yungbote/xapi-mis-backend/internal/data/repos/learner"
	xapirepo "github.com/yungbote/xapi-mis-backend/internal/data/repos/xapi"
	types "github.com/yungbote/xapi-mis-backend/internal/domain"
	domainagg "github.com/yungbote/xapi-mis-backend/internal/domain/aggregates"
	"github.com/yungbote/xapi-mis-backend/internal/domain/learner"
	"github.com/yungbote/xapi-mis-backend/internal/platform/dbctx"
)

const opIngestStatement = "xapi.statement.ingest"

type StatementIngestDeps struct {
	Base       BaseDeps
	Learners   learnerrepo.LearnerRepo
	Statements xapirepo.StatementRepo
	// NewLearnerRef mints the external id of learners created by ingestion.
	NewLearnerRef func() string
}

type statementIngestAggregate struct {
	deps StatementIngestDeps
}

func NewStatementIngestAggregate(deps StatementIngestDeps) domainagg.StatementIngestAggregate {
	deps.Base = deps.Base.withDefaults()
	if deps.NewLearnerRef == nil {
		deps.NewLearnerRef = uuid.NewString
	}
	return &statementIngestAggregate{deps: deps}
}

func (a *statementIngestAggregate) Contract() domainagg.Contract {
	return domainagg.StatementIngestAggregateContract
}

func (a *statementIngestAggregate) Ingest(ctx context.Context, in domainagg.IngestStatementInput) (domainagg.IngestStatementResult, error) {
	var out domainagg.IngestStatementResult
	if err := validateIngestInput(in); err != nil {
		return out, MapError(opIngestStatement, err)
	}

	err := executeWrite(ctx, a.deps.Base, opIngestStatement, func(dbc dbctx.Context) error {
		exists, err := a.deps.Statements.StatementIDExists(dbc, in.StatementID)
		if err != nil {
			return fmt.Errorf("check statement id: %w", err)
		}
		if exists {
			return duplicateStatement(in.StatementID)
		}

		name := learner.UnknownName
		if in.ActorName != nil && strings.TrimSpace(*in.ActorName) != "" {
			name = strings.TrimSpace(*in.ActorName)
		}
		l, created, err := a.deps.Learners.FindOrCreateByEmail(dbc, &types.Learner{
			LearnerID: a.deps.NewLearnerRef(),
			Name:      name,
			Email:     in.ActorEmail,
			Status:    learner.StatusActive,
		})
		if err != nil {
			return fmt.Errorf("resolve learner: %w", err)
		}

		row := &types.XapiStatement{
			StatementID:        in.StatementID,
			LearnerID:          l.ID,
			Verb:               in.Verb,
			ObjectType:         in.ObjectType,
			ObjectID:           in.ObjectID,
			ObjectName:         in.ObjectName,
			RawStatement:       datatypes.JSON(in.Raw),
			StatementTimestamp: in.Timestamp,
		}
		if _, err := a.deps.Statements.Create(dbc, []*types.XapiStatement{row}); err != nil {
			// Lost a race with a concurrent insert of the same statement id.
			if col, ok := UniqueViolationColumn(err, "xapi_statement"); ok && col == "statement_id" {
				return duplicateStatement(in.StatementID)
			}
			return fmt.Errorf("insert statement: %w", err)
		}

		out = domainagg.IngestStatementResult{
			StatementRowID: row.ID,
			LearnerRowID:   l.ID,
			LearnerRef:     l.LearnerID,
			LearnerCreated: created,
			StoredAt:       a.deps.Base.Now(),
		}
		return nil
	})
	if err != nil {
		return domainagg.IngestStatementResult{}, err
	}

	a.deps.Base.Log.Debug("statement ingested",
		"statement_id", in.StatementID,
		"verb", in.Verb,
		"learner_id", out.LearnerRef,
		"learner_created", out.LearnerCreated,
	)
	return out, nil
}

func duplicateStatement(statementID string) error {
	return domainagg.NewError(
		domainagg.CodeConflict,
		opIngestStatement,
		fmt.Sprintf("statement %s has already been stored", statementID),
		ConflictError("duplicate statement id"),
	)
}

func validateIngestInput(in domainagg.IngestStatementInput) error {
	switch {
	case strings.TrimSpace(in.StatementID) == "":
		return ValidationError("statement id is required")
	case strings.TrimSpace(in.ActorEmail) == "":
		return ValidationError("actor email is required")
	case strings.TrimSpace(in.Verb) == "":
		return ValidationError("verb is required")
	case strings.TrimSpace(in.ObjectID) == "":
		return ValidationError("object id is required")
	case in.Timestamp.IsZero():
		return ValidationError("statement timestamp is required")
	case len(in.Raw) == 0:
		return ValidationError("raw statement is required")
	}
	return nil
}
