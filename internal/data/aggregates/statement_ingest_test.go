package aggregates_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/xapi-mis-backend/internal/data/aggregates"
	aggtestutil "github.com/yungbote/xapi-mis-backend/internal/data/aggregates/testutil"
	learnerrepo "github.com/yungbote/xapi-mis-backend/internal/data/repos/learner"
	"github.com/yungbote/xapi-mis-backend/internal/data/repos/testutil"
	xapirepo "github.com/yungbote/xapi-mis-backend/internal/data/repos/xapi"
	types "github.com/yungbote/xapi-mis-backend/internal/domain"
	domainagg "github.com/yungbote/xapi-mis-backend/internal/domain/aggregates"
)

type ingestFixture struct {
	db    *gorm.DB
	hooks *aggtestutil.HooksRecorder
	agg   domainagg.StatementIngestAggregate
}

func newIngestFixture(t *testing.T, runner aggregates.TxRunner) ingestFixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	hooks := &aggtestutil.HooksRecorder{}
	if runner == nil {
		runner = aggregates.NewGormTxRunner(db)
	}
	agg := aggregates.NewStatementIngestAggregate(aggregates.StatementIngestDeps{
		Base:       aggregates.BaseDeps{DB: db, Log: log, Runner: runner, Hooks: hooks},
		Learners:   learnerrepo.NewLearnerRepo(db, log),
		Statements: xapirepo.NewStatementRepo(db, log),
	})
	return ingestFixture{db: db, hooks: hooks, agg: agg}
}

func ingestInput(email string, name *string) domainagg.IngestStatementInput {
	return domainagg.IngestStatementInput{
		StatementID: uuid.NewString(),
		ActorEmail:  email,
		ActorName:   name,
		Verb:        "completed",
		ObjectType:  "Activity",
		ObjectID:    "http://example.com/course/1",
		Timestamp:   time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Raw:         []byte(`{"verb":{"id":"http://adlnet.gov/expapi/verbs/completed"}}`),
	}
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestStatementIngestCreatesLearnerOnce(t *testing.T) {
	f := newIngestFixture(t, nil)
	ctx := context.Background()
	name := "Jane Doe"

	first, err := f.agg.Ingest(ctx, ingestInput("jane@example.com", &name))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !first.LearnerCreated || first.LearnerRef == "" {
		t.Fatalf("expected a new learner, got %+v", first)
	}
	if _, err := uuid.Parse(first.LearnerRef); err != nil {
		t.Fatalf("ingestion learner_id should be a UUID, got %q", first.LearnerRef)
	}

	other := "Someone Else"
	second, err := f.agg.Ingest(ctx, ingestInput("jane@example.com", &other))
	if err != nil {
		t.Fatalf("Ingest (existing): %v", err)
	}
	if second.LearnerCreated || second.LearnerRowID != first.LearnerRowID {
		t.Fatalf("expected existing learner, got %+v", second)
	}

	var l types.Learner
	if err := f.db.First(&l, "id = ?", first.LearnerRowID).Error; err != nil {
		t.Fatalf("load learner: %v", err)
	}
	if l.Name != "Jane Doe" || l.Status != types.LearnerStatusActive || l.Email != "jane@example.com" {
		t.Fatalf("learner fields changed or wrong: %+v", l)
	}
	if n := countRows(t, f.db, &types.XapiStatement{}); n != 2 {
		t.Fatalf("expected 2 statements, got %d", n)
	}
	if got := f.hooks.Statuses("xapi.statement.ingest"); len(got) != 2 || got[0] != "success" {
		t.Fatalf("unexpected hook statuses %v", got)
	}
}

func TestStatementIngestKeepsExistingLearnerUntouched(t *testing.T) {
	f := newIngestFixture(t, nil)
	ctx := context.Background()
	existing := testutil.SeedLearner(t, ctx, f.db, "LRN-EXISTING", "existing@example.com")
	if err := f.db.Model(&types.Learner{}).Where("id = ?", existing.ID).
		Updates(map[string]interface{}{"name": "Existing Learner", "status": types.LearnerStatusInactive}).Error; err != nil {
		t.Fatalf("prepare learner: %v", err)
	}

	newName := "New Name"
	res, err := f.agg.Ingest(ctx, ingestInput("existing@example.com", &newName))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.LearnerCreated || res.LearnerRef != "LRN-EXISTING" {
		t.Fatalf("expected existing learner, got %+v", res)
	}
	var l types.Learner
	if err := f.db.First(&l, "id = ?", existing.ID).Error; err != nil {
		t.Fatalf("load learner: %v", err)
	}
	if l.Name != "Existing Learner" || l.Status != types.LearnerStatusInactive {
		t.Fatalf("ingestion must not modify learner: %+v", l)
	}
}

func TestStatementIngestDefaultsLearnerName(t *testing.T) {
	f := newIngestFixture(t, nil)
	res, err := f.agg.Ingest(context.Background(), ingestInput("anon@example.com", nil))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	var l types.Learner
	if err := f.db.First(&l, "id = ?", res.LearnerRowID).Error; err != nil {
		t.Fatalf("load learner: %v", err)
	}
	if l.Name != "Unknown Learner" {
		t.Fatalf("expected default name, got %q", l.Name)
	}
}

func TestStatementIngestDuplicateStatementID(t *testing.T) {
	f := newIngestFixture(t, nil)
	ctx := context.Background()

	in := ingestInput("first@example.com", nil)
	if _, err := f.agg.Ingest(ctx, in); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	dup := in
	dup.ActorEmail = "brand-new@example.com"
	_, err := f.agg.Ingest(ctx, dup)
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if n := countRows(t, f.db, &types.XapiStatement{}); n != 1 {
		t.Fatalf("duplicate must not be stored, got %d statements", n)
	}
	// The whole request rolls back, including the learner it would create.
	if n := countRows(t, f.db, &types.Learner{}); n != 1 {
		t.Fatalf("expected no stray learner, got %d learners", n)
	}
	if f.hooks.ConflictCount("xapi.statement.ingest") != 1 {
		t.Fatalf("expected one conflict hook, got %+v", f.hooks.Conflicts)
	}
}

func TestStatementIngestRollsBackOnCommitFailure(t *testing.T) {
	db := testutil.DB(t)
	runner := &aggtestutil.FailingTxRunner{
		Inner:         aggregates.NewGormTxRunner(db),
		FailAfterBody: errors.New("commit refused"),
	}
	log := testutil.Logger(t)
	agg := aggregates.NewStatementIngestAggregate(aggregates.StatementIngestDeps{
		Base:       aggregates.BaseDeps{DB: db, Log: log, Runner: runner},
		Learners:   learnerrepo.NewLearnerRepo(db, log),
		Statements: xapirepo.NewStatementRepo(db, log),
	})

	_, err := agg.Ingest(context.Background(), ingestInput("rollback@example.com", nil))
	if !domainagg.IsCode(err, domainagg.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if runner.BodyRuns != 1 {
		t.Fatalf("expected body to run once, got %d", runner.BodyRuns)
	}
	if n := countRows(t, db, &types.Learner{}); n != 0 {
		t.Fatalf("learner survived rollback: %d", n)
	}
	if n := countRows(t, db, &types.XapiStatement{}); n != 0 {
		t.Fatalf("statement survived rollback: %d", n)
	}
}

func TestStatementIngestConcurrentNewEmail(t *testing.T) {
	f := newIngestFixture(t, nil)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("Racer %d", i)
			if _, err := f.agg.Ingest(ctx, ingestInput("race@example.com", &name)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Ingest: %v", err)
	}

	if n := countRows(t, f.db, &types.Learner{}); n != 1 {
		t.Fatalf("expected exactly one learner, got %d", n)
	}
	if n := countRows(t, f.db, &types.XapiStatement{}); n != workers {
		t.Fatalf("expected %d statements, got %d", workers, n)
	}
}

func TestStatementIngestRejectsIncompleteInput(t *testing.T) {
	f := newIngestFixture(t, nil)
	in := ingestInput("x@example.com", nil)
	in.ObjectID = ""
	_, err := f.agg.Ingest(context.Background(), in)
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if c := f.agg.Contract(); !c.RequiresAggregateOwnedTx() {
		t.Fatalf("ingest aggregate must own its transaction: %+v", c)
	}
	if c := f.agg.Contract(); !c.Guards("xapi_statement.statement_id") || c.Guards("learner.learner_id") {
		t.Fatalf("unexpected unique keys: %v", c.UniqueKeys)
	}
}
