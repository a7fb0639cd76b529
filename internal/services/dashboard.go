package services

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/yungbote/xapi-mis-backend/internal/clients/redis"
	learnerrepo "github.com/yungbote/xapi-mis-backend/internal/data/repos/learner"
	xapirepo "github.com/yungbote/xapi-mis-backend/internal/data/repos/xapi"
	types "github.com/yungbote/xapi-mis-backend/internal/domain"
	"github.com/yungbote/xapi-mis-backend/internal/observability"
	"github.com/yungbote/xapi-mis-backend/internal/platform/dbctx"
	"github.com/yungbote/xapi-mis-backend/internal/platform/logger"
)

const (
	DashboardCacheKey     = "dashboard:v1"
	DefaultDashboardTTL   = 30 * time.Second
	dashboardTopVerbs     = 5
	dashboardRecent       = 10
	dashboardRecentWindow = 7 * 24 * time.Hour
	dashboardActivityDays = 30
)

type DashboardMetrics struct {
	TotalLearners   int64 `json:"totalLearners"`
	ActiveLearners  int64 `json:"activeLearners"`
	TotalStatements int64 `json:"totalStatements"`
	RecentActivity  int64 `json:"recentActivity"`
}

type Dashboard struct {
	Metrics          DashboardMetrics       `json:"metrics"`
	TopVerbs         []types.VerbCount      `json:"topVerbs"`
	RecentStatements []*types.XapiStatement `json:"recentStatements"`
	DailyActivity    []types.DailyCount     `json:"dailyActivity"`
	GeneratedAt      time.Time              `json:"generatedAt"`
}

// DashboardInvalidator is implemented by whatever caches the dashboard;
// writers call it after a successful commit.
type DashboardInvalidator interface {
	Invalidate(ctx context.Context)
}

type DashboardService interface {
	DashboardInvalidator
	Get(dbc dbctx.Context) (*Dashboard, error)
}

type dashboardService struct {
	db         *gorm.DB
	log        *logger.Logger
	learners   learnerrepo.LearnerRepo
	statements xapirepo.StatementRepo
	cache      redis.Cache
	ttl        time.Duration
	metrics    *observability.Metrics
	now        func() time.Time

	flights    singleflight.Group
	generation atomic.Uint64
}

func NewDashboardService(
	db *gorm.DB,
	log *logger.Logger,
	learners learnerrepo.LearnerRepo,
	statements xapirepo.StatementRepo,
	cache redis.Cache,
	ttl time.Duration,
	metrics *observability.Metrics,
) DashboardService {
	if cache == nil {
		cache = redis.NewNoopCache()
	}
	if ttl <= 0 {
		ttl = DefaultDashboardTTL
	}
	return &dashboardService{
		db:         db,
		log:        log.With("service", "DashboardService"),
		learners:   learners,
		statements: statements,
		cache:      cache,
		ttl:        ttl,
		metrics:    metrics,
		now:        time.Now,
	}
}

func (s *dashboardService) Get(dbc dbctx.Context) (*Dashboard, error) {
	ctx, span := observability.Tracer("services").Start(dbc.Ctx, "DashboardService.Get")
	defer span.End()

	var cached Dashboard
	hit, err := s.cache.GetJSON(ctx, DashboardCacheKey, &cached)
	if err != nil {
		s.log.Warn("dashboard cache read failed", "error", err)
	}
	s.metrics.IncCacheLookup(ctx, hit)
	if hit {
		return &cached, nil
	}

	gen := s.generation.Load()
	v, err, _ := s.flights.Do(strconv.FormatUint(gen, 10), func() (interface{}, error) {
		d, err := s.build(dbctx.Context{Ctx: ctx, Tx: dbc.Tx})
		if err != nil {
			return nil, err
		}
		// A write committed while we were reading; the next request rebuilds.
		if s.generation.Load() == gen {
			if err := s.cache.SetJSON(ctx, DashboardCacheKey, d, s.ttl); err != nil {
				s.log.Warn("dashboard cache write failed", "error", err)
			}
		}
		return d, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return v.(*Dashboard), nil
}

func (s *dashboardService) Invalidate(ctx context.Context) {
	s.generation.Add(1)
	if err := s.cache.Delete(ctx, DashboardCacheKey); err != nil {
		s.log.Warn("dashboard cache invalidation failed", "error", err)
	}
}

func (s *dashboardService) build(dbc dbctx.Context) (*Dashboard, error) {
	now := s.now().UTC()
	out := &Dashboard{GeneratedAt: now}

	g, gctx := errgroup.WithContext(dbc.Ctx)
	inner := dbctx.Context{Ctx: gctx, Tx: dbc.Tx}

	g.Go(func() error {
		n, err := s.learners.Count(inner)
		if err != nil {
			return fmt.Errorf("count learners: %w", err)
		}
		out.Metrics.TotalLearners = n
		return nil
	})
	g.Go(func() error {
		n, err := s.learners.CountByStatus(inner, types.LearnerStatusActive)
		if err != nil {
			return fmt.Errorf("count active learners: %w", err)
		}
		out.Metrics.ActiveLearners = n
		return nil
	})
	g.Go(func() error {
		n, err := s.statements.CountAll(inner)
		if err != nil {
			return fmt.Errorf("count statements: %w", err)
		}
		out.Metrics.TotalStatements = n
		return nil
	})
	g.Go(func() error {
		n, err := s.statements.CountSince(inner, now.Add(-dashboardRecentWindow))
		if err != nil {
			return fmt.Errorf("count recent statements: %w", err)
		}
		out.Metrics.RecentActivity = n
		return nil
	})
	g.Go(func() error {
		verbs, err := s.statements.TopVerbs(inner, dashboardTopVerbs)
		if err != nil {
			return fmt.Errorf("top verbs: %w", err)
		}
		out.TopVerbs = verbs
		return nil
	})
	g.Go(func() error {
		recent, err := s.statements.Recent(inner, dashboardRecent)
		if err != nil {
			return fmt.Errorf("recent statements: %w", err)
		}
		if recent == nil {
			recent = []*types.XapiStatement{}
		}
		out.RecentStatements = recent
		return nil
	})
	g.Go(func() error {
		daily, err := s.statements.DailyActivity(inner, now.AddDate(0, 0, -dashboardActivityDays))
		if err != nil {
			return fmt.Errorf("daily activity: %w", err)
		}
		out.DailyActivity = daily
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
