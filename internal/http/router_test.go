package http

import (
	"bytes"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/xapi-mis-backend/internal/clients/redis"
	"github.com/yungbote/xapi-mis-backend/internal/data/aggregates"
	learnerrepo "github.com/yungbote/xapi-mis-backend/internal/data/repos/learner"
	"github.com/yungbote/xapi-mis-backend/internal/data/repos/testutil"
	xapirepo "github.com/yungbote/xapi-mis-backend/internal/data/repos/xapi"
	httpH "github.com/yungbote/xapi-mis-backend/internal/http/handlers"
	"github.com/yungbote/xapi-mis-backend/internal/services"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)

	learners := learnerrepo.NewLearnerRepo(db, log)
	statements := xapirepo.NewStatementRepo(db, log)
	base := aggregates.BaseDeps{DB: db, Log: log}
	ingest := aggregates.NewStatementIngestAggregate(aggregates.StatementIngestDeps{Base: base, Learners: learners, Statements: statements})
	learnerAgg := aggregates.NewLearnerAggregate(aggregates.LearnerDeps{Base: base, Learners: learners, Statements: statements})

	dashboard := services.NewDashboardService(db, log, learners, statements, redis.NewNoopCache(), 0, nil)
	return NewRouter(RouterConfig{
		Log:              log,
		XapiHandler:      httpH.NewXapiHandler(services.NewStatementService(db, log, ingest, statements, dashboard, nil)),
		LearnerHandler:   httpH.NewLearnerHandler(services.NewLearnerService(db, log, learners, statements, learnerAgg, dashboard)),
		DashboardHandler: httpH.NewDashboardHandler(dashboard),
		HealthHandler:    httpH.NewHealthHandler(),
	})
}

func do(t *testing.T, r *gin.Engine, method, path string, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var rdr *bytes.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var out map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	}
	return rec, out
}

func statementJSON(id, email, verbURI string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"id":    id,
		"actor": map[string]interface{}{"mbox": "mailto:" + email, "name": "Jane Doe"},
		"verb":  map[string]interface{}{"id": verbURI},
		"object": map[string]interface{}{
			"id":         "http://example.com/activities/intro",
			"definition": map[string]interface{}{"name": map[string]string{"en-US": "Intro"}},
		},
	})
	return string(b)
}

func TestRouterIngestAndQuery(t *testing.T) {
	r := newTestRouter(t)

	rec, body := do(t, r, nethttp.MethodPost, "/xapi/statements",
		statementJSON(uuid.NewString(), "jane@example.com", "http://adlnet.gov/expapi/verbs/completed"))
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "success", body["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec, body = do(t, r, nethttp.MethodPost, "/xapi/statements",
		statementJSON(uuid.NewString(), "jane@example.com", "http://example.com/verbs/custom-verb"))
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())

	rec, body = do(t, r, nethttp.MethodGet, "/xapi/statements?verb=custom-verb", "")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["total"])
	assert.EqualValues(t, 50, body["per_page"])
	data := body["data"].([]interface{})
	require.Len(t, data, 1)
	st := data[0].(map[string]interface{})
	assert.Equal(t, "Intro", st["object_name"])
	learner := st["learner"].(map[string]interface{})
	assert.Equal(t, "jane@example.com", learner["email"])

	rec, body = do(t, r, nethttp.MethodGet, "/xapi/statements?learner_id="+learner["learner_id"].(string), "")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["total"])
}

func TestRouterIngestErrors(t *testing.T) {
	r := newTestRouter(t)

	rec, body := do(t, r, nethttp.MethodPost, "/xapi/statements", `{"actor":{"mbox":"jane@example.com"}}`)
	require.Equal(t, nethttp.StatusUnprocessableEntity, rec.Code)
	errs := body["errors"].(map[string]interface{})
	assert.Len(t, errs, 4)
	assert.Equal(t, []interface{}{"Actor mbox must be a valid email address in mailto: format."}, errs["actor.mbox"])
	assert.NotEmpty(t, body["message"])

	rec, body = do(t, r, nethttp.MethodPost, "/xapi/statements", `not json`)
	require.Equal(t, nethttp.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_body", body["error"].(map[string]interface{})["code"])

	id := uuid.NewString()
	rec, _ = do(t, r, nethttp.MethodPost, "/xapi/statements", statementJSON(id, "a@example.com", "http://adlnet.gov/expapi/verbs/passed"))
	require.Equal(t, nethttp.StatusOK, rec.Code)
	rec, body = do(t, r, nethttp.MethodPost, "/xapi/statements", statementJSON(id, "a@example.com", "http://adlnet.gov/expapi/verbs/passed"))
	require.Equal(t, nethttp.StatusConflict, rec.Code)
	assert.Equal(t, "duplicate_statement", body["error"].(map[string]interface{})["code"])

	rec, body = do(t, r, nethttp.MethodGet, "/xapi/statements?from_date=not-a-date", "")
	require.Equal(t, nethttp.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, body["errors"], "from_date")
}

func TestRouterLearnerLifecycle(t *testing.T) {
	r := newTestRouter(t)

	rec, body := do(t, r, nethttp.MethodPost, "/learners",
		`{"learner_id":"LRN-HTTP0001","name":"Ada","email":"ada@example.com","status":"active"}`)
	require.Equal(t, nethttp.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "LRN-HTTP0001", body["learner_id"])

	rec, body = do(t, r, nethttp.MethodPost, "/learners",
		`{"learner_id":"LRN-HTTP0001","name":"Ada","email":"ada@example.com","status":"active"}`)
	require.Equal(t, nethttp.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, body["errors"], "learner_id")
	assert.Contains(t, body["errors"], "email")

	rec, body = do(t, r, nethttp.MethodPost, "/learners", `{"learner_id":42}`)
	require.Equal(t, nethttp.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, body["errors"], "learner_id")

	rec, _ = do(t, r, nethttp.MethodPost, "/xapi/statements", statementJSON(uuid.NewString(), "ada@example.com", "http://adlnet.gov/expapi/verbs/answered"))
	require.Equal(t, nethttp.StatusOK, rec.Code)

	rec, body = do(t, r, nethttp.MethodGet, "/learners/LRN-HTTP0001", "")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, "Ada", body["learner"].(map[string]interface{})["name"])
	assert.Len(t, body["verbStats"], 1)
	assert.Len(t, body["recentStatements"], 1)

	rec, body = do(t, r, nethttp.MethodGet, "/learners", "")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	rows := body["data"].([]interface{})
	require.Len(t, rows, 1)
	assert.EqualValues(t, 1, rows[0].(map[string]interface{})["xapi_statements_count"])

	rec, body = do(t, r, nethttp.MethodPatch, "/learners/LRN-HTTP0001",
		`{"learner_id":"LRN-HTTP0001","name":"Ada L.","email":"ada@example.com","status":"paused"}`)
	require.Equal(t, nethttp.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []interface{}{"Status must be either active or inactive."}, body["errors"].(map[string]interface{})["status"])

	rec, body = do(t, r, nethttp.MethodPut, "/learners/LRN-HTTP0001",
		`{"learner_id":"LRN-HTTP0001","name":"Ada L.","email":"ada@example.com","status":"inactive"}`)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, "inactive", body["status"])

	rec, _ = do(t, r, nethttp.MethodDelete, "/learners/LRN-HTTP0001", "")
	require.Equal(t, nethttp.StatusNoContent, rec.Code)

	rec, body = do(t, r, nethttp.MethodGet, "/learners/LRN-HTTP0001", "")
	require.Equal(t, nethttp.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", body["error"].(map[string]interface{})["code"])

	rec, body = do(t, r, nethttp.MethodGet, "/xapi/statements", "")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.EqualValues(t, 0, body["total"])
}

func TestRouterDashboardAndHealth(t *testing.T) {
	r := newTestRouter(t)

	rec, _ := do(t, r, nethttp.MethodPost, "/xapi/statements", statementJSON(uuid.NewString(), "d@example.com", "http://adlnet.gov/expapi/verbs/experienced"))
	require.Equal(t, nethttp.StatusOK, rec.Code)

	rec, body := do(t, r, nethttp.MethodGet, "/dashboard", "")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	metrics := body["metrics"].(map[string]interface{})
	assert.EqualValues(t, 1, metrics["totalLearners"])
	assert.EqualValues(t, 1, metrics["activeLearners"])
	assert.EqualValues(t, 1, metrics["totalStatements"])
	assert.EqualValues(t, 1, metrics["recentActivity"])
	assert.Len(t, body["topVerbs"], 1)
	assert.Len(t, body["dailyActivity"], 1)

	rec, body = do(t, r, nethttp.MethodGet, "/health-check", "")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}
