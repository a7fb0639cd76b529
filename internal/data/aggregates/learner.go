package aggregates

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	learnerrepo "github.com/yungbote/xapi-mis-backend/internal/data/repos/learner"
	xapirepo "github.com/yungbote/xapi-mis-backend/internal/data/repos/xapi"
	types "github.com/yungbote/xapi-mis-backend/internal/domain"
	domainagg "github.com/yungbote/xapi-mis-backend/internal/domain/aggregates"
	"github.com/yungbote/xapi-mis-backend/internal/platform/dbctx"
)

const (
	opLearnerCreate = "learner.create"
	opLearnerUpdate = "learner.update"
	opLearnerDelete = "learner.delete"

	msgLearnerIDTaken = "This learner ID is already in use by another learner."
	msgEmailTaken     = "This email is already registered to another learner."
)

type LearnerDeps struct {
	Base       BaseDeps
	Learners   learnerrepo.LearnerRepo
	Statements xapirepo.StatementRepo
}

type learnerAggregate struct {
	deps LearnerDeps
}

func NewLearnerAggregate(deps LearnerDeps) domainagg.LearnerAggregate {
	deps.Base = deps.Base.withDefaults()
	return &learnerAggregate{deps: deps}
}

func (a *learnerAggregate) Contract() domainagg.Contract {
	return domainagg.LearnerAggregateContract
}

func (a *learnerAggregate) Create(ctx context.Context, in domainagg.LearnerInput) (*types.Learner, error) {
	var out *types.Learner
	err := executeWrite(ctx, a.deps.Base, opLearnerCreate, func(dbc dbctx.Context) error {
		if err := a.checkUnique(dbc, opLearnerCreate, in, uuid.Nil); err != nil {
			return err
		}
		row := &types.Learner{
			LearnerID: in.LearnerID,
			Name:      in.Name,
			Email:     in.Email,
			Phone:     in.Phone,
			Notes:     in.Notes,
			Status:    in.Status,
		}
		if _, err := a.deps.Learners.Create(dbc, []*types.Learner{row}); err != nil {
			return uniqueFieldError(opLearnerCreate, err)
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *learnerAggregate) Update(ctx context.Context, learnerRef string, in domainagg.LearnerInput) (*types.Learner, error) {
	var out *types.Learner
	err := executeWrite(ctx, a.deps.Base, opLearnerUpdate, func(dbc dbctx.Context) error {
		current, err := a.deps.Learners.GetByLearnerID(dbc, learnerRef)
		if err != nil {
			return err
		}
		if current == nil {
			return learnerNotFound(opLearnerUpdate, learnerRef)
		}
		if err := a.checkUnique(dbc, opLearnerUpdate, in, current.ID); err != nil {
			return err
		}
		if err := a.deps.Learners.UpdateFields(dbc, current.ID, map[string]interface{}{
			"learner_id": in.LearnerID,
			"name":       in.Name,
			"email":      in.Email,
			"phone":      in.Phone,
			"notes":      in.Notes,
			"status":     in.Status,
		}); err != nil {
			return uniqueFieldError(opLearnerUpdate, err)
		}
		out, err = a.deps.Learners.GetByID(dbc, current.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *learnerAggregate) Delete(ctx context.Context, learnerRef string) (domainagg.DeleteLearnerResult, error) {
	var out domainagg.DeleteLearnerResult
	err := executeWrite(ctx, a.deps.Base, opLearnerDelete, func(dbc dbctx.Context) error {
		current, err := a.deps.Learners.GetByLearnerID(dbc, learnerRef)
		if err != nil {
			return err
		}
		if current == nil {
			return learnerNotFound(opLearnerDelete, learnerRef)
		}
		// The FK cascades as well; deleting explicitly keeps the count and
		// does not depend on the driver enforcing foreign keys.
		removed, err := a.deps.Statements.DeleteByLearnerID(dbc, current.ID)
		if err != nil {
			return fmt.Errorf("delete statements: %w", err)
		}
		if _, err := a.deps.Learners.DeleteByID(dbc, current.ID); err != nil {
			return fmt.Errorf("delete learner: %w", err)
		}
		out = domainagg.DeleteLearnerResult{LearnerRowID: current.ID, StatementsRemoved: removed}
		return nil
	})
	if err != nil {
		return domainagg.DeleteLearnerResult{}, err
	}
	a.deps.Base.Log.Info("learner deleted", "learner_id", learnerRef, "statements_removed", out.StatementsRemoved)
	return out, nil
}

func (a *learnerAggregate) checkUnique(dbc dbctx.Context, op string, in domainagg.LearnerInput, self uuid.UUID) error {
	fields := map[string][]string{}
	taken, err := a.deps.Learners.LearnerIDTaken(dbc, in.LearnerID, self)
	if err != nil {
		return err
	}
	if taken {
		fields["learner_id"] = []string{msgLearnerIDTaken}
	}
	taken, err = a.deps.Learners.EmailTaken(dbc, in.Email, self)
	if err != nil {
		return err
	}
	if taken {
		fields["email"] = []string{msgEmailTaken}
	}
	return domainagg.NewFieldsError(op, fields)
}

// uniqueFieldError turns a unique-index race on learner into the same field
// error the up-front check would have produced.
func uniqueFieldError(op string, err error) error {
	col, ok := UniqueViolationColumn(err, "learner")
	if !ok {
		return err
	}
	switch col {
	case "learner_id":
		return domainagg.NewFieldError(op, "learner_id", msgLearnerIDTaken)
	case "email":
		return domainagg.NewFieldError(op, "email", msgEmailTaken)
	default:
		return err
	}
}

func learnerNotFound(op, learnerRef string) error {
	return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("learner %q not found", strings.TrimSpace(learnerRef)), nil)
}
