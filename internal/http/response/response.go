package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/xapi-mis-backend/internal/domain/aggregates"
	"github.com/yungbote/xapi-mis-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// ValidationEnvelope is the 422 body form clients bind field errors from.
type ValidationEnvelope struct {
	Message string             `json:"message"`
	Errors  apierr.FieldErrors `json:"errors"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondValidation(c *gin.Context, fields apierr.FieldErrors) {
	e := apierr.Validation(fields)
	c.JSON(e.Status, ValidationEnvelope{Message: e.Message(), Errors: fields})
}

// RespondServiceError renders err from a service call. Field errors become a
// 422 validation body; aggregate codes map to their HTTP status; anything
// unrecognised is a 500 whose cause is attached to the gin context for the
// request log rather than sent to the client.
func RespondServiceError(c *gin.Context, fallbackCode string, err error) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		if len(ae.Fields) > 0 {
			RespondValidation(c, ae.Fields)
			return
		}
		RespondError(c, ae.Status, ae.Code, ae)
		return
	}

	if fields := domainagg.FieldsOf(err); len(fields) > 0 {
		RespondValidation(c, apierr.FieldErrors(fields))
		return
	}
	switch domainagg.CodeOf(err) {
	case domainagg.CodeNotFound:
		RespondError(c, http.StatusNotFound, "not_found", err)
		return
	case domainagg.CodeConflict:
		RespondError(c, http.StatusConflict, "conflict", err)
		return
	case domainagg.CodeValidation, domainagg.CodeInvariantViolation:
		RespondError(c, http.StatusUnprocessableEntity, string(domainagg.CodeOf(err)), err)
		return
	case domainagg.CodePreconditionFailed:
		RespondError(c, http.StatusPreconditionFailed, "precondition_failed", err)
		return
	case domainagg.CodeRetryable:
		RespondError(c, http.StatusServiceUnavailable, "retryable", err)
		return
	}

	_ = c.Error(err)
	RespondError(c, http.StatusInternalServerError, fallbackCode, errors.New("internal server error"))
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
