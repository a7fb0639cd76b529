package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainagg "github.com/yungbote/xapi-mis-backend/internal/domain/aggregates"
	"github.com/yungbote/xapi-mis-backend/internal/platform/apierr"
)

func render(t *testing.T, err error) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	RespondServiceError(c, "request_failed", err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestRespondServiceErrorValidation(t *testing.T) {
	fields := apierr.FieldErrors{}
	fields.Add("id", "Statement ID is required.")
	fields.Add("verb.id", "Verb ID is required.")

	rec, body := render(t, apierr.Validation(fields))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Statement ID is required. (and 1 more error)", body["message"])
	errs := body["errors"].(map[string]interface{})
	assert.Equal(t, []interface{}{"Verb ID is required."}, errs["verb.id"])
}

func TestRespondServiceErrorAggregateFields(t *testing.T) {
	err := domainagg.NewFieldError("learner.create", "email", "This email is already registered to another learner.")
	rec, body := render(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, body["errors"], "email")
}

func TestRespondServiceErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"api error", apierr.New(http.StatusConflict, "duplicate_statement", errors.New("dup")), http.StatusConflict, "duplicate_statement"},
		{"not found", domainagg.NewError(domainagg.CodeNotFound, "learner.update", "missing", nil), http.StatusNotFound, "not_found"},
		{"conflict", domainagg.NewError(domainagg.CodeConflict, "x", "dup", nil), http.StatusConflict, "conflict"},
		{"retryable", domainagg.NewError(domainagg.CodeRetryable, "x", "busy", nil), http.StatusServiceUnavailable, "retryable"},
		{"unknown", errors.New("db exploded"), http.StatusInternalServerError, "request_failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := render(t, tc.err)
			assert.Equal(t, tc.status, rec.Code)
			env := body["error"].(map[string]interface{})
			assert.Equal(t, tc.code, env["code"])
			if tc.status == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", env["message"])
			}
		})
	}
}
