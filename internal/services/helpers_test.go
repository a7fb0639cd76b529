package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/xapi-mis-backend/internal/clients/redis"
	"github.com/yungbote/xapi-mis-backend/internal/data/aggregates"
	learnerrepo "github.com/yungbote/xapi-mis-backend/internal/data/repos/learner"
	"github.com/yungbote/xapi-mis-backend/internal/data/repos/testutil"
	xapirepo "github.com/yungbote/xapi-mis-backend/internal/data/repos/xapi"
)

type stack struct {
	db         *gorm.DB
	learners   learnerrepo.LearnerRepo
	statements xapirepo.StatementRepo
	invalid    *countingInvalidator
	statement  StatementService
	learner    LearnerService
}

func newStack(t *testing.T) *stack {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	learners := learnerrepo.NewLearnerRepo(db, log)
	statements := xapirepo.NewStatementRepo(db, log)
	base := aggregates.BaseDeps{DB: db, Log: log}
	inv := &countingInvalidator{}

	ingest := aggregates.NewStatementIngestAggregate(aggregates.StatementIngestDeps{
		Base:       base,
		Learners:   learners,
		Statements: statements,
	})
	learnerAgg := aggregates.NewLearnerAggregate(aggregates.LearnerDeps{
		Base:       base,
		Learners:   learners,
		Statements: statements,
	})
	return &stack{
		db:         db,
		learners:   learners,
		statements: statements,
		invalid:    inv,
		statement:  NewStatementService(db, log, ingest, statements, inv, nil),
		learner:    NewLearnerService(db, log, learners, statements, learnerAgg, inv),
	}
}

type countingInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (c *countingInvalidator) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
}

func (c *countingInvalidator) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// memoryCache is an in-process redis.Cache for service tests.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	gets    int
	sets    int
}

var _ redis.Cache = (*memoryCache)(nil)

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (m *memoryCache) GetJSON(_ context.Context, key string, dst interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	raw, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (m *memoryCache) SetJSON(_ context.Context, key string, v interface{}, _ time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.entries[key] = raw
	return nil
}

func (m *memoryCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func (m *memoryCache) Close() error { return nil }

func (m *memoryCache) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}
