package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/xapi-mis-backend/internal/http/response"
	"github.com/yungbote/xapi-mis-backend/internal/platform/dbctx"
	"github.com/yungbote/xapi-mis-backend/internal/services"
)

type XapiHandler struct {
	statements services.StatementService
}

func NewXapiHandler(statements services.StatementService) *XapiHandler {
	return &XapiHandler{statements: statements}
}

// POST /xapi/statements
func (h *XapiHandler) Store(c *gin.Context) {
	raw, err := readBody(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, services.CodeInvalidBody, err)
		return
	}
	if _, err := h.statements.Ingest(c.Request.Context(), raw); err != nil {
		response.RespondServiceError(c, "ingest_statement_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"status": "success"})
}

// GET /xapi/statements?learner_id=&verb=&from_date=&to_date=&page=
func (h *XapiHandler) Index(c *gin.Context) {
	page, err := h.statements.Query(dbctx.Context{Ctx: c.Request.Context()}, services.StatementQuery{
		LearnerID: c.Query("learner_id"),
		Verb:      c.Query("verb"),
		FromDate:  c.Query("from_date"),
		ToDate:    c.Query("to_date"),
		Page:      pageParam(c),
	})
	if err != nil {
		response.RespondServiceError(c, "list_statements_failed", err)
		return
	}
	response.RespondOK(c, page.WithLinks(requestPath(c), c.Request.URL.Query()))
}
