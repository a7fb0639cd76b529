package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/xapi-mis-backend/internal/data/repos/testutil"
	"github.com/yungbote/xapi-mis-backend/internal/platform/apierr"
	"github.com/yungbote/xapi-mis-backend/internal/platform/dbctx"
)

func statementBody(id, email, verb string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"actor": {"mbox": "mailto:%s", "name": "Jane Doe"},
		"verb": {"id": "http://adlnet.gov/expapi/verbs/%s", "display": {"en-US": %q}},
		"object": {"id": "http://example.com/activities/safety", "definition": {"name": {"fr": "Sécurité", "en": "Safety"}}},
		"timestamp": "2024-03-01T10:00:00Z"
	}`, id, email, verb, verb))
}

func asAPIError(t *testing.T, err error) *apierr.Error {
	t.Helper()
	var ae *apierr.Error
	require.True(t, errors.As(err, &ae), "expected *apierr.Error, got %T: %v", err, err)
	return ae
}

func TestStatementServiceIngestStoresNormalizedStatement(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	id := uuid.NewString()

	res, err := s.statement.Ingest(ctx, statementBody(id, "jane@example.com", "completed"))
	require.NoError(t, err)
	assert.True(t, res.LearnerCreated)
	assert.Equal(t, 1, s.invalid.Calls())

	stored, err := s.statements.GetByStatementID(dbctx.Context{Ctx: ctx}, id)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "completed", stored.Verb)
	assert.Equal(t, "Activity", stored.ObjectType)
	require.NotNil(t, stored.ObjectName)
	assert.Equal(t, "Safety", *stored.ObjectName)
	assert.True(t, stored.StatementTimestamp.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))
	assert.JSONEq(t, string(statementBody(id, "jane@example.com", "completed")), string(stored.RawStatement))
	require.NotNil(t, stored.Learner)
	assert.Equal(t, "Jane Doe", stored.Learner.Name)
	assert.Equal(t, "jane@example.com", stored.Learner.Email)
}

func TestStatementServiceIngestValidation(t *testing.T) {
	s := newStack(t)

	_, err := s.statement.Ingest(context.Background(), []byte(`{}`))
	ae := asAPIError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, ae.Status)
	assert.Equal(t, []string{"actor.mbox", "id", "object.id", "verb.id"}, ae.Fields.Fields())
	assert.Equal(t, 0, s.invalid.Calls())

	body := statementBody("not-a-uuid", "jane@example.com", "completed")
	_, err = s.statement.Ingest(context.Background(), body)
	ae = asAPIError(t, err)
	assert.Equal(t, []string{"id"}, ae.Fields.Fields())
	assert.Equal(t, "Statement ID must be a valid UUID.", ae.Fields["id"][0])
}

func TestStatementServiceIngestRejectsNonJSON(t *testing.T) {
	s := newStack(t)
	for _, body := range []string{"not json", `[1,2]`, ``} {
		_, err := s.statement.Ingest(context.Background(), []byte(body))
		ae := asAPIError(t, err)
		assert.Equal(t, http.StatusBadRequest, ae.Status, "body %q", body)
		assert.Equal(t, CodeInvalidBody, ae.Code)
	}
}

func TestStatementServiceIngestDuplicate(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	id := uuid.NewString()

	_, err := s.statement.Ingest(ctx, statementBody(id, "jane@example.com", "completed"))
	require.NoError(t, err)
	_, err = s.statement.Ingest(ctx, statementBody(id, "other@example.com", "passed"))
	ae := asAPIError(t, err)
	assert.Equal(t, http.StatusConflict, ae.Status)
	assert.Equal(t, CodeDuplicateStatement, ae.Code)

	n, err := s.learners.Count(dbctx.Context{Ctx: ctx})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, 1, s.invalid.Calls())
}

func TestStatementServiceQueryFilters(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	l := testutil.SeedLearner(t, ctx, s.db, "LRN-FILTER01", "filter@example.com")
	other := testutil.SeedLearner(t, ctx, s.db, "LRN-FILTER02", "other@example.com")
	end := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	testutil.SeedStatements(t, ctx, s.db, l.ID, "completed", 5, end)
	testutil.SeedStatements(t, ctx, s.db, l.ID, "attempted", 3, end.Add(-time.Hour))
	testutil.SeedStatements(t, ctx, s.db, other.ID, "completed", 2, end.AddDate(0, 0, -3))
	dbc := dbctx.Context{Ctx: ctx}

	page, err := s.statement.Query(dbc, StatementQuery{LearnerID: "LRN-FILTER01"})
	require.NoError(t, err)
	assert.EqualValues(t, 8, page.Total)

	page, err = s.statement.Query(dbc, StatementQuery{LearnerID: "LRN-FILTER01", Verb: "completed"})
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.Total)
	for _, st := range page.Data {
		require.NotNil(t, st.Learner)
		assert.Equal(t, "LRN-FILTER01", st.Learner.LearnerID)
	}

	page, err = s.statement.Query(dbc, StatementQuery{FromDate: "2024-05-10", ToDate: "2024-05-10"})
	require.NoError(t, err)
	assert.EqualValues(t, 8, page.Total)

	page, err = s.statement.Query(dbc, StatementQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 10, page.Total)
	for i := 1; i < len(page.Data); i++ {
		assert.False(t, page.Data[i].StatementTimestamp.After(page.Data[i-1].StatementTimestamp), "results must be newest first")
	}
}

func TestStatementServiceQueryRejectsBadDates(t *testing.T) {
	s := newStack(t)
	_, err := s.statement.Query(dbctx.Context{Ctx: context.Background()}, StatementQuery{FromDate: "yesterday", ToDate: "2024-13-45"})
	ae := asAPIError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, ae.Status)
	assert.Equal(t, []string{"from_date", "to_date"}, ae.Fields.Fields())
}

func TestStatementServiceQueryPaginates(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	l := testutil.SeedLearner(t, ctx, s.db, "LRN-PAGE0001", "page@example.com")
	testutil.SeedStatements(t, ctx, s.db, l.ID, "experienced", 55, time.Now().UTC())

	page, err := s.statement.Query(dbctx.Context{Ctx: ctx}, StatementQuery{Page: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 55, page.Total)
	assert.Equal(t, StatementsPerPage, page.PerPage)
	assert.Equal(t, 2, page.LastPage)
	assert.Len(t, page.Data, 5)
	require.NotNil(t, page.From)
	assert.Equal(t, 51, *page.From)

	page, err = s.statement.Query(dbctx.Context{Ctx: ctx}, StatementQuery{Page: 3})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
}
