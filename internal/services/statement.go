package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	xapirepo "github.com/yungbote/xapi-mis-backend/internal/data/repos/xapi"
	types "github.com/yungbote/xapi-mis-backend/internal/domain"
	domainagg "github.com/yungbote/xapi-mis-backend/internal/domain/aggregates"
	"github.com/yungbote/xapi-mis-backend/internal/normalization"
	"github.com/yungbote/xapi-mis-backend/internal/observability"
	"github.com/yungbote/xapi-mis-backend/internal/platform/apierr"
	"github.com/yungbote/xapi-mis-backend/internal/platform/ctxutil"
	"github.com/yungbote/xapi-mis-backend/internal/platform/dbctx"
	"github.com/yungbote/xapi-mis-backend/internal/platform/logger"
)

const (
	StatementsPerPage = 50

	CodeDuplicateStatement = "duplicate_statement"
	CodeInvalidBody        = "invalid_body"
)

// StatementQuery carries the raw query-string filters of a statement listing.
type StatementQuery struct {
	LearnerID string
	Verb      string
	FromDate  string
	ToDate    string
	Page      int
}

type StatementService interface {
	Ingest(ctx context.Context, raw []byte) (domainagg.IngestStatementResult, error)
	Query(dbc dbctx.Context, q StatementQuery) (*Page[*types.XapiStatement], error)
}

type statementService struct {
	db         *gorm.DB
	log        *logger.Logger
	ingest     domainagg.StatementIngestAggregate
	statements xapirepo.StatementRepo
	dashboard  DashboardInvalidator
	metrics    *observability.Metrics
	now        func() time.Time
}

func NewStatementService(
	db *gorm.DB,
	log *logger.Logger,
	ingest domainagg.StatementIngestAggregate,
	statements xapirepo.StatementRepo,
	dashboard DashboardInvalidator,
	metrics *observability.Metrics,
) StatementService {
	return &statementService{
		db:         db,
		log:        log.With("service", "StatementService"),
		ingest:     ingest,
		statements: statements,
		dashboard:  dashboard,
		metrics:    metrics,
		now:        time.Now,
	}
}

func (s *statementService) Ingest(ctx context.Context, raw []byte) (domainagg.IngestStatementResult, error) {
	ctx, span := observability.Tracer("services").Start(ctx, "StatementService.Ingest")
	defer span.End()

	payload, fields, err := normalization.DecodeStatement(raw)
	if err != nil {
		s.metrics.IncIngest(ctx, "invalid")
		span.SetStatus(codes.Error, "invalid body")
		if errors.Is(err, normalization.ErrInvalidBody) {
			return domainagg.IngestStatementResult{}, apierr.New(http.StatusBadRequest, CodeInvalidBody, err)
		}
		return domainagg.IngestStatementResult{}, apierr.New(http.StatusBadRequest, CodeInvalidBody, fmt.Errorf("decode statement: %w", err))
	}
	if len(fields) > 0 {
		s.metrics.IncIngest(ctx, "invalid")
		span.SetStatus(codes.Error, "validation failed")
		return domainagg.IngestStatementResult{}, apierr.Validation(fields)
	}

	n := normalization.Normalize(payload, raw, s.now())
	span.SetAttributes(
		attribute.String("xapi.verb", n.Verb),
		attribute.String("xapi.object_type", n.ObjectType),
	)

	res, err := s.ingest.Ingest(ctx, domainagg.IngestStatementInput{
		StatementID: n.StatementID,
		ActorEmail:  n.ActorEmail,
		ActorName:   n.ActorName,
		Verb:        n.Verb,
		ObjectType:  n.ObjectType,
		ObjectID:    n.ObjectID,
		ObjectName:  n.ObjectName,
		Timestamp:   n.Timestamp,
		Raw:         n.Raw,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(domainagg.CodeOf(err)))
		switch {
		case domainagg.IsCode(err, domainagg.CodeConflict):
			s.metrics.IncIngest(ctx, "duplicate")
			return domainagg.IngestStatementResult{}, apierr.New(http.StatusConflict, CodeDuplicateStatement, err)
		case domainagg.IsCode(err, domainagg.CodeValidation):
			s.metrics.IncIngest(ctx, "invalid")
			return domainagg.IngestStatementResult{}, err
		default:
			s.metrics.IncIngest(ctx, "error")
			s.log.Error("statement ingestion failed", append(ctxutil.LogFields(ctx), "error", err)...)
			return domainagg.IngestStatementResult{}, err
		}
	}

	s.metrics.IncIngest(ctx, "stored")
	span.SetAttributes(attribute.Bool("xapi.learner_created", res.LearnerCreated))
	if s.dashboard != nil {
		s.dashboard.Invalidate(ctx)
	}
	s.log.Info("statement stored", append(ctxutil.LogFields(ctx),
		"verb", n.Verb,
		"learner_id", res.LearnerRef,
		"learner_created", res.LearnerCreated,
	)...)
	return res, nil
}

func (s *statementService) Query(dbc dbctx.Context, q StatementQuery) (*Page[*types.XapiStatement], error) {
	ctx, span := observability.Tracer("services").Start(dbc.Ctx, "StatementService.Query")
	defer span.End()
	dbc.Ctx = ctx

	filter, fields := parseStatementFilter(q)
	if len(fields) > 0 {
		return nil, apierr.Validation(fields)
	}
	page := NormalizePage(q.Page)
	rows, total, err := s.statements.Query(dbc, filter, PageOffset(page, StatementsPerPage), StatementsPerPage)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query statements: %w", err)
	}
	span.SetAttributes(attribute.Int64("xapi.total", total))
	return NewPage(rows, page, StatementsPerPage, total), nil
}

func parseStatementFilter(q StatementQuery) (types.StatementFilter, apierr.FieldErrors) {
	filter := types.StatementFilter{
		LearnerRef: strings.TrimSpace(q.LearnerID),
		Verb:       strings.TrimSpace(q.Verb),
	}
	fields := apierr.FieldErrors{}
	if v := strings.TrimSpace(q.FromDate); v != "" {
		if t, ok := normalization.ParseTimestamp(v); ok {
			filter.FromDate = &t
		} else {
			fields.Add("from_date", "The from date field must be a valid date.")
		}
	}
	if v := strings.TrimSpace(q.ToDate); v != "" {
		if t, ok := normalization.ParseTimestamp(v); ok {
			filter.ToDate = &t
		} else {
			fields.Add("to_date", "The to date field must be a valid date.")
		}
	}
	return filter, fields
}
