package xapi

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/xapi-mis-backend/internal/domain"
	"github.com/yungbote/xapi-mis-backend/internal/platform/dbctx"
	"github.com/yungbote/xapi-mis-backend/internal/platform/logger"
)

type StatementRepo interface {
	Create(dbc dbctx.Context, rows []*types.XapiStatement) ([]*types.XapiStatement, error)
	GetByStatementID(dbc dbctx.Context, statementID string) (*types.XapiStatement, error)
	StatementIDExists(dbc dbctx.Context, statementID string) (bool, error)

	Query(dbc dbctx.Context, f types.StatementFilter, offset, limit int) ([]*types.XapiStatement, int64, error)
	Recent(dbc dbctx.Context, limit int) ([]*types.XapiStatement, error)
	RecentByLearner(dbc dbctx.Context, learnerID uuid.UUID, limit int) ([]*types.XapiStatement, error)

	CountAll(dbc dbctx.Context) (int64, error)
	CountSince(dbc dbctx.Context, since time.Time) (int64, error)
	CountByLearner(dbc dbctx.Context, learnerID uuid.UUID) (int64, error)

	TopVerbs(dbc dbctx.Context, n int) ([]types.VerbCount, error)
	DailyActivity(dbc dbctx.Context, since time.Time) ([]types.DailyCount, error)
	LearnerVerbBreakdown(dbc dbctx.Context, learnerID uuid.UUID) ([]types.VerbCount, error)

	DeleteByLearnerID(dbc dbctx.Context, learnerID uuid.UUID) (int64, error)
}

type statementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStatementRepo(db *gorm.DB, log *logger.Logger) StatementRepo {
	return &statementRepo{db: db, log: log.With("repo", "StatementRepo")}
}

func (r *statementRepo) Create(dbc dbctx.Context, rows []*types.XapiStatement) ([]*types.XapiStatement, error) {
	if len(rows) == 0 {
		return []*types.XapiStatement{}, nil
	}
	// Learner is set for callers that want it echoed back; never upsert it.
	if err := dbc.DB(r.db).Omit("Learner").Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *statementRepo) GetByStatementID(dbc dbctx.Context, statementID string) (*types.XapiStatement, error) {
	if strings.TrimSpace(statementID) == "" {
		return nil, nil
	}
	var out []*types.XapiStatement
	if err := dbc.DB(r.db).
		Preload("Learner").
		Where("statement_id = ?", statementID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *statementRepo) StatementIDExists(dbc dbctx.Context, statementID string) (bool, error) {
	var n int64
	if err := dbc.DB(r.db).
		Model(&types.XapiStatement{}).
		Where("statement_id = ?", statementID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// filtered builds a fresh query each call so Count and Find never share
// statement state.
func (r *statementRepo) filtered(dbc dbctx.Context, f types.StatementFilter) *gorm.DB {
	txx := dbc.DB(r.db)
	q := txx.Model(&types.XapiStatement{})

	if ref := strings.TrimSpace(f.LearnerRef); ref != "" {
		sub := txx.Session(&gorm.Session{NewDB: true}).
			Model(&types.Learner{}).
			Select("id").
			Where("learner.learner_id = ?", ref)
		if id, err := uuid.Parse(ref); err == nil {
			sub = sub.Or("learner.id = ?", id)
		}
		q = q.Where("xapi_statement.learner_id IN (?)", sub)
	}
	if verb := strings.TrimSpace(f.Verb); verb != "" {
		q = q.Where("xapi_statement.verb = ?", verb)
	}
	if f.FromDate != nil {
		q = q.Where("xapi_statement.statement_timestamp >= ?", startOfDay(*f.FromDate))
	}
	if f.ToDate != nil {
		q = q.Where("xapi_statement.statement_timestamp < ?", startOfDay(*f.ToDate).AddDate(0, 0, 1))
	}
	return q
}

func (r *statementRepo) Query(dbc dbctx.Context, f types.StatementFilter, offset, limit int) ([]*types.XapiStatement, int64, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := r.filtered(dbc, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	out := []*types.XapiStatement{}
	if total == 0 || int64(offset) >= total {
		return out, total, nil
	}
	if err := r.filtered(dbc, f).
		Preload("Learner").
		Order("xapi_statement.statement_timestamp DESC, xapi_statement.id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *statementRepo) Recent(dbc dbctx.Context, limit int) ([]*types.XapiStatement, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []*types.XapiStatement
	if err := dbc.DB(r.db).
		Preload("Learner").
		Order("statement_timestamp DESC, id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *statementRepo) RecentByLearner(dbc dbctx.Context, learnerID uuid.UUID, limit int) ([]*types.XapiStatement, error) {
	if learnerID == uuid.Nil {
		return []*types.XapiStatement{}, nil
	}
	if limit <= 0 {
		limit = 10
	}
	var out []*types.XapiStatement
	if err := dbc.DB(r.db).
		Where("learner_id = ?", learnerID).
		Order("statement_timestamp DESC, id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *statementRepo) CountAll(dbc dbctx.Context) (int64, error) {
	var n int64
	if err := dbc.DB(r.db).Model(&types.XapiStatement{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *statementRepo) CountSince(dbc dbctx.Context, since time.Time) (int64, error) {
	var n int64
	if err := dbc.DB(r.db).
		Model(&types.XapiStatement{}).
		Where("statement_timestamp >= ?", since.UTC()).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *statementRepo) CountByLearner(dbc dbctx.Context, learnerID uuid.UUID) (int64, error) {
	var n int64
	if err := dbc.DB(r.db).
		Model(&types.XapiStatement{}).
		Where("learner_id = ?", learnerID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// TopVerbs returns up to n verbs by frequency; ties are broken by verb so the
// result is stable.
func (r *statementRepo) TopVerbs(dbc dbctx.Context, n int) ([]types.VerbCount, error) {
	if n <= 0 {
		return []types.VerbCount{}, nil
	}
	out := []types.VerbCount{}
	if err := dbc.DB(r.db).
		Model(&types.XapiStatement{}).
		Select("verb, COUNT(*) AS count").
		Group("verb").
		Order("COUNT(*) DESC, verb ASC").
		Limit(n).
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// DailyActivity groups statements with an event time at or after since by
// UTC calendar date, ascending. Dates with no statements are absent.
func (r *statementRepo) DailyActivity(dbc dbctx.Context, since time.Time) ([]types.DailyCount, error) {
	txx := dbc.DB(r.db)
	expr := dateExpr(txx)
	out := []types.DailyCount{}
	if err := txx.
		Model(&types.XapiStatement{}).
		Select(expr+" AS date, COUNT(*) AS count").
		Where("statement_timestamp >= ?", since.UTC()).
		Group(expr).
		Order(expr + " ASC").
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *statementRepo) LearnerVerbBreakdown(dbc dbctx.Context, learnerID uuid.UUID) ([]types.VerbCount, error) {
	out := []types.VerbCount{}
	if learnerID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Model(&types.XapiStatement{}).
		Select("verb, COUNT(*) AS count").
		Where("learner_id = ?", learnerID).
		Group("verb").
		Order("COUNT(*) DESC, verb ASC").
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *statementRepo) DeleteByLearnerID(dbc dbctx.Context, learnerID uuid.UUID) (int64, error) {
	if learnerID == uuid.Nil {
		return 0, nil
	}
	res := dbc.DB(r.db).Where("learner_id = ?", learnerID).Delete(&types.XapiStatement{})
	return res.RowsAffected, res.Error
}

func dateExpr(db *gorm.DB) string {
	if db != nil && db.Dialector != nil && db.Dialector.Name() == "sqlite" {
		return "DATE(statement_timestamp)"
	}
	return "to_char(statement_timestamp AT TIME ZONE 'UTC', 'YYYY-MM-DD')"
}

func startOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
