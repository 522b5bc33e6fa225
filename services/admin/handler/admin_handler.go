package handler

import (
	"context"
	"net/http"

	"voltbay/internal/scheduler"
	"voltbay/services/helpers"
	"voltbay/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=admin_handler.go -destination=mock_admin_handler.go -package=handler

type SchedulerInterface interface {
	Status() scheduler.Status
	RunOnce(ctx context.Context) (scheduler.Summary, error)
}

type AdminHandler struct {
	scheduler SchedulerInterface
}

func NewAdminHandler(s SchedulerInterface) *AdminHandler {
	return &AdminHandler{scheduler: s}
}

// SchedulerStatusHandler handles GET /api/admin/scheduler
func (h *AdminHandler) SchedulerStatusHandler(c *gin.Context) {
	utils.JSONResponse(c, http.StatusOK, h.scheduler.Status(), "scheduler status retrieved")
}

// RunSchedulerHandler handles POST /api/admin/scheduler/run
func (h *AdminHandler) RunSchedulerHandler(c *gin.Context) {
	summary, err := h.scheduler.RunOnce(c.Request.Context())
	if err != nil {
		helpers.RespondError(c, "RunSchedulerHandler", "scheduler pass failed", err, nil)
		return
	}

	utils.JSONResponse(c, http.StatusOK, summary, "scheduler pass completed")
	helpers.LogSuccess("RunSchedulerHandler", "scheduler pass completed", map[string]any{
		"checked": summary.Checked,
		"settled": summary.Settled,
		"expired": summary.Expired,
		"failed":  summary.Failed,
	})
}
