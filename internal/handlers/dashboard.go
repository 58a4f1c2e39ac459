package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lumenkind/playtrack-backend/internal/logger"
	"github.com/lumenkind/playtrack-backend/internal/services"
)

// reportDeadline bounds dashboard and report generation; sub-analyses that
// miss it degrade the response to partial instead of hanging.
const reportDeadline = 10 * time.Second

type DashboardHandler struct {
	log         *logger.Logger
	trackingSvc services.ProgressTrackingService
}

func NewDashboardHandler(log *logger.Logger, tsvc services.ProgressTrackingService) *DashboardHandler {
	return &DashboardHandler{
		log:         log.With("handler", "DashboardHandler"),
		trackingSvc: tsvc,
	}
}

// GET /api/dashboard/:child_id?days=N
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	childID, ok := childIDParam(c)
	if !ok {
		return
	}
	days := 30
	if raw := c.Query("days"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			days = n
		}
	}
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	ctx, cancel := context.WithTimeout(c.Request.Context(), reportDeadline)
	defer cancel()
	data, err := h.trackingSvc.GenerateDashboardData(ctx, childID, start, end)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, data)
}

// GET /api/report/:child_id?start=...&end=...
func (h *DashboardHandler) Report(c *gin.Context) {
	childID, ok := childIDParam(c)
	if !ok {
		return
	}
	var start, end time.Time
	if raw := c.Query("start"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
		start = t
	}
	if raw := c.Query("end"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
		end = t
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), reportDeadline)
	defer cancel()
	report, err := h.trackingSvc.GenerateLongTermReport(ctx, childID, start, end)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, report)
}

// GET /api/summary/:child_id
func (h *DashboardHandler) Summary(c *gin.Context) {
	childID, ok := childIDParam(c)
	if !ok {
		return
	}
	summary, err := h.trackingSvc.GenerateProgressSummary(c.Request.Context(), childID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, summary)
}
