package learner

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/xapi-mis-backend/internal/domain"
	"github.com/yungbote/xapi-mis-backend/internal/platform/dbctx"
	"github.com/yungbote/xapi-mis-backend/internal/platform/logger"
)

// findOrCreateAttempts bounds the insert/select loop when a racing insert
// for the same email is rolled back between our two statements.
const findOrCreateAttempts = 3

type LearnerRepo interface {
	Create(dbc dbctx.Context, rows []*types.Learner) ([]*types.Learner, error)
	FindOrCreateByEmail(dbc dbctx.Context, candidate *types.Learner) (*types.Learner, bool, error)

	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Learner, error)
	GetByLearnerID(dbc dbctx.Context, learnerID string) (*types.Learner, error)
	GetByEmail(dbc dbctx.Context, email string) (*types.Learner, error)

	LearnerIDTaken(dbc dbctx.Context, learnerID string, exceptID uuid.UUID) (bool, error)
	EmailTaken(dbc dbctx.Context, email string, exceptID uuid.UUID) (bool, error)

	ListWithStatementCounts(dbc dbctx.Context, offset, limit int) ([]*types.LearnerWithStatementCount, error)
	Count(dbc dbctx.Context) (int64, error)
	CountByStatus(dbc dbctx.Context, status string) (int64, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteByID(dbc dbctx.Context, id uuid.UUID) (int64, error)
}

type learnerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLearnerRepo(db *gorm.DB, log *logger.Logger) LearnerRepo {
	return &learnerRepo{db: db, log: log.With("repo", "LearnerRepo")}
}

func (r *learnerRepo) Create(dbc dbctx.Context, rows []*types.Learner) ([]*types.Learner, error) {
	if len(rows) == 0 {
		return []*types.Learner{}, nil
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindOrCreateByEmail inserts candidate unless a learner with the same email
// exists, in which case the existing row is returned untouched. The bool
// reports whether candidate was inserted.
func (r *learnerRepo) FindOrCreateByEmail(dbc dbctx.Context, candidate *types.Learner) (*types.Learner, bool, error) {
	if candidate == nil || strings.TrimSpace(candidate.Email) == "" {
		return nil, false, fmt.Errorf("missing learner email")
	}
	txx := dbc.DB(r.db)
	for attempt := 0; attempt < findOrCreateAttempts; attempt++ {
		res := txx.
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "email"}},
				DoNothing: true,
			}).
			Create(candidate)
		if res.Error != nil {
			return nil, false, res.Error
		}
		if res.RowsAffected == 1 {
			return candidate, true, nil
		}

		existing, err := r.GetByEmail(dbc, candidate.Email)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, false, nil
		}
		r.log.Warn("learner vanished after email conflict, retrying", "attempt", attempt+1)
	}
	return nil, false, fmt.Errorf("find or create learner: gave up after %d attempts", findOrCreateAttempts)
}

func (r *learnerRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Learner, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	return r.first(dbc, "id = ?", id)
}

func (r *learnerRepo) GetByLearnerID(dbc dbctx.Context, learnerID string) (*types.Learner, error) {
	if strings.TrimSpace(learnerID) == "" {
		return nil, nil
	}
	return r.first(dbc, "learner_id = ?", learnerID)
}

func (r *learnerRepo) GetByEmail(dbc dbctx.Context, email string) (*types.Learner, error) {
	if email == "" {
		return nil, nil
	}
	return r.first(dbc, "email = ?", email)
}

// first returns nil, nil when no row matches.
func (r *learnerRepo) first(dbc dbctx.Context, query string, args ...interface{}) (*types.Learner, error) {
	var out []*types.Learner
	if err := dbc.DB(r.db).
		Model(&types.Learner{}).
		Where(query, args...).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *learnerRepo) LearnerIDTaken(dbc dbctx.Context, learnerID string, exceptID uuid.UUID) (bool, error) {
	return r.taken(dbc, "learner_id", learnerID, exceptID)
}

func (r *learnerRepo) EmailTaken(dbc dbctx.Context, email string, exceptID uuid.UUID) (bool, error) {
	return r.taken(dbc, "email", email, exceptID)
}

func (r *learnerRepo) taken(dbc dbctx.Context, column, value string, exceptID uuid.UUID) (bool, error) {
	q := dbc.DB(r.db).Model(&types.Learner{}).Where(column+" = ?", value)
	if exceptID != uuid.Nil {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *learnerRepo) ListWithStatementCounts(dbc dbctx.Context, offset, limit int) ([]*types.LearnerWithStatementCount, error) {
	if limit <= 0 || limit > 200 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	var out []*types.LearnerWithStatementCount
	if err := dbc.DB(r.db).
		Model(&types.Learner{}).
		Select(`learner.*, (
			SELECT COUNT(*) FROM xapi_statement
			WHERE xapi_statement.learner_id = learner.id
		) AS xapi_statements_count`).
		Order("learner.created_at DESC, learner.id DESC").
		Offset(offset).
		Limit(limit).
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *learnerRepo) Count(dbc dbctx.Context) (int64, error) {
	var n int64
	if err := dbc.DB(r.db).Model(&types.Learner{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *learnerRepo) CountByStatus(dbc dbctx.Context, status string) (int64, error) {
	var n int64
	if err := dbc.DB(r.db).
		Model(&types.Learner{}).
		Where("status = ?", status).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *learnerRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing learner id")
	}
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Model(&types.Learner{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *learnerRepo) DeleteByID(dbc dbctx.Context, id uuid.UUID) (int64, error) {
	if id == uuid.Nil {
		return 0, nil
	}
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.Learner{})
	return res.RowsAffected, res.Error
}
