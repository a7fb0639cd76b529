package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/xapi-mis-backend/internal/http/response"
	"github.com/yungbote/xapi-mis-backend/internal/platform/dbctx"
	"github.com/yungbote/xapi-mis-backend/internal/services"
)

type LearnerHandler struct {
	learners services.LearnerService
}

func NewLearnerHandler(learners services.LearnerService) *LearnerHandler {
	return &LearnerHandler{learners: learners}
}

// GET /learners?page=
func (h *LearnerHandler) List(c *gin.Context) {
	page, err := h.learners.List(dbctx.Context{Ctx: c.Request.Context()}, pageParam(c))
	if err != nil {
		response.RespondServiceError(c, "list_learners_failed", err)
		return
	}
	response.RespondOK(c, page.WithLinks(requestPath(c), c.Request.URL.Query()))
}

// POST /learners
func (h *LearnerHandler) Create(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	l, err := h.learners.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondServiceError(c, "create_learner_failed", err)
		return
	}
	response.RespondCreated(c, l)
}

// GET /learners/:learner_id
func (h *LearnerHandler) Show(c *gin.Context) {
	d, err := h.learners.Show(dbctx.Context{Ctx: c.Request.Context()}, c.Param("learner_id"))
	if err != nil {
		response.RespondServiceError(c, "get_learner_failed", err)
		return
	}
	response.RespondOK(c, d)
}

// PUT|PATCH /learners/:learner_id
func (h *LearnerHandler) Update(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	l, err := h.learners.Update(c.Request.Context(), c.Param("learner_id"), req)
	if err != nil {
		response.RespondServiceError(c, "update_learner_failed", err)
		return
	}
	response.RespondOK(c, l)
}

// DELETE /learners/:learner_id
func (h *LearnerHandler) Delete(c *gin.Context) {
	if err := h.learners.Delete(c.Request.Context(), c.Param("learner_id")); err != nil {
		response.RespondServiceError(c, "delete_learner_failed", err)
		return
	}
	response.RespondNoContent(c)
}

func (h *LearnerHandler) bind(c *gin.Context) (services.LearnerRequest, bool) {
	var req services.LearnerRequest
	fields, err := decodeJSON(c, &req)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return req, false
	}
	if len(fields) > 0 {
		response.RespondValidation(c, fields)
		return req, false
	}
	return req, true
}
