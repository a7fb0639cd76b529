package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/xapi-mis-backend/internal/http/response"
	"github.com/yungbote/xapi-mis-backend/internal/platform/dbctx"
	"github.com/yungbote/xapi-mis-backend/internal/services"
)

type DashboardHandler struct {
	dashboard services.DashboardService
}

func NewDashboardHandler(dashboard services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// GET /dashboard
func (h *DashboardHandler) Get(c *gin.Context) {
	d, err := h.dashboard.Get(dbctx.Context{Ctx: c.Request.Context()})
	if err != nil {
		response.RespondServiceError(c, "dashboard_failed", err)
		return
	}
	response.RespondOK(c, d)
}
