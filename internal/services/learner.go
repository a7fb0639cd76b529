package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	learnerrepo "github.com/yungbote/xapi-mis-backend/internal/data/repos/learner"
	xapirepo "github.com/yungbote/xapi-mis-backend/internal/data/repos/xapi"
	types "github.com/yungbote/xapi-mis-backend/internal/domain"
	domainagg "github.com/yungbote/xapi-mis-backend/internal/domain/aggregates"
	"github.com/yungbote/xapi-mis-backend/internal/platform/apierr"
	"github.com/yungbote/xapi-mis-backend/internal/platform/dbctx"
	"github.com/yungbote/xapi-mis-backend/internal/platform/logger"
	"github.com/yungbote/xapi-mis-backend/internal/platform/validate"
)

const (
	LearnersPerPage      = 10
	LearnerRecentLimit   = 10
	opLearnerServiceShow = "learner.show"
)

// LearnerRequest is the body of learner create and update calls.
type LearnerRequest struct {
	LearnerID string  `json:"learner_id" validate:"required,max=255"`
	Name      string  `json:"name" validate:"required,max=255"`
	Email     string  `json:"email" validate:"required,email,max=255"`
	Phone     *string `json:"phone" validate:"omitempty,max=20"`
	Notes     *string `json:"notes"`
	Status    string  `json:"status" validate:"required,oneof=active inactive"`
}

var learnerMessages = validate.Messages{
	"learner_id.required": "Learner ID is required.",
	"name.required":       "Learner name is required.",
	"email.required":      "Email address is required.",
	"email.email":         "Please provide a valid email address.",
	"status.required":     "Please select a status.",
	"status.oneof":        "Status must be either active or inactive.",
}

// LearnerDetail is a learner with its verb breakdown and latest statements.
type LearnerDetail struct {
	Learner          *types.Learner         `json:"learner"`
	VerbStats        []types.VerbCount      `json:"verbStats"`
	RecentStatements []*types.XapiStatement `json:"recentStatements"`
}

type LearnerService interface {
	List(dbc dbctx.Context, page int) (*Page[*types.LearnerWithStatementCount], error)
	Show(dbc dbctx.Context, learnerRef string) (*LearnerDetail, error)
	Create(ctx context.Context, req LearnerRequest) (*types.Learner, error)
	Update(ctx context.Context, learnerRef string, req LearnerRequest) (*types.Learner, error)
	Delete(ctx context.Context, learnerRef string) error
}

type learnerService struct {
	db         *gorm.DB
	log        *logger.Logger
	learners   learnerrepo.LearnerRepo
	statements xapirepo.StatementRepo
	aggregate  domainagg.LearnerAggregate
	dashboard  DashboardInvalidator
}

func NewLearnerService(
	db *gorm.DB,
	log *logger.Logger,
	learners learnerrepo.LearnerRepo,
	statements xapirepo.StatementRepo,
	aggregate domainagg.LearnerAggregate,
	dashboard DashboardInvalidator,
) LearnerService {
	return &learnerService{
		db:         db,
		log:        log.With("service", "LearnerService"),
		learners:   learners,
		statements: statements,
		aggregate:  aggregate,
		dashboard:  dashboard,
	}
}

func (s *learnerService) List(dbc dbctx.Context, page int) (*Page[*types.LearnerWithStatementCount], error) {
	page = NormalizePage(page)
	total, err := s.learners.Count(dbc)
	if err != nil {
		return nil, fmt.Errorf("count learners: %w", err)
	}
	rows := []*types.LearnerWithStatementCount{}
	if offset := PageOffset(page, LearnersPerPage); int64(offset) < total {
		rows, err = s.learners.ListWithStatementCounts(dbc, offset, LearnersPerPage)
		if err != nil {
			return nil, fmt.Errorf("list learners: %w", err)
		}
	}
	return NewPage(rows, page, LearnersPerPage, total), nil
}

func (s *learnerService) Show(dbc dbctx.Context, learnerRef string) (*LearnerDetail, error) {
	l, err := s.learners.GetByLearnerID(dbc, learnerRef)
	if err != nil {
		return nil, fmt.Errorf("load learner: %w", err)
	}
	if l == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, opLearnerServiceShow, fmt.Sprintf("learner %q not found", learnerRef), nil)
	}
	verbs, err := s.statements.LearnerVerbBreakdown(dbc, l.ID)
	if err != nil {
		return nil, fmt.Errorf("verb breakdown: %w", err)
	}
	recent, err := s.statements.RecentByLearner(dbc, l.ID, LearnerRecentLimit)
	if err != nil {
		return nil, fmt.Errorf("recent statements: %w", err)
	}
	return &LearnerDetail{Learner: l, VerbStats: verbs, RecentStatements: recent}, nil
}

func (s *learnerService) Create(ctx context.Context, req LearnerRequest) (*types.Learner, error) {
	in, err := s.input(req)
	if err != nil {
		return nil, err
	}
	l, err := s.aggregate.Create(ctx, in)
	if err != nil {
		return nil, learnerError(err)
	}
	s.invalidate(ctx)
	return l, nil
}

func (s *learnerService) Update(ctx context.Context, learnerRef string, req LearnerRequest) (*types.Learner, error) {
	in, err := s.input(req)
	if err != nil {
		return nil, err
	}
	l, err := s.aggregate.Update(ctx, learnerRef, in)
	if err != nil {
		return nil, learnerError(err)
	}
	s.invalidate(ctx)
	return l, nil
}

func (s *learnerService) Delete(ctx context.Context, learnerRef string) error {
	if _, err := s.aggregate.Delete(ctx, learnerRef); err != nil {
		return learnerError(err)
	}
	s.invalidate(ctx)
	return nil
}

// input trims req, applies the form rules and returns the aggregate input.
func (s *learnerService) input(req LearnerRequest) (domainagg.LearnerInput, error) {
	req.LearnerID = strings.TrimSpace(req.LearnerID)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Status = strings.TrimSpace(req.Status)
	req.Phone = optionalString(req.Phone)
	req.Notes = optionalString(req.Notes)

	fields, err := validate.Struct(req, learnerMessages)
	if err != nil {
		return domainagg.LearnerInput{}, fmt.Errorf("validate learner: %w", err)
	}
	if len(fields) > 0 {
		return domainagg.LearnerInput{}, apierr.Validation(fields)
	}
	return domainagg.LearnerInput{
		LearnerID: req.LearnerID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Notes:     req.Notes,
		Status:    req.Status,
	}, nil
}

func (s *learnerService) invalidate(ctx context.Context) {
	if s.dashboard != nil {
		s.dashboard.Invalidate(ctx)
	}
}

// learnerError lifts aggregate field errors into the 422 shape.
func learnerError(err error) error {
	if fields := domainagg.FieldsOf(err); len(fields) > 0 {
		return apierr.Validation(apierr.FieldErrors(fields))
	}
	return err
}

func optionalString(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
