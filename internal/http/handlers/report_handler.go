// README: Report handlers: daily stats JSON and PDF export. Admin only.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vilamourachauffeurs/dispatch/internal/http/middleware"
	"github.com/vilamourachauffeurs/dispatch/internal/modules/report"
)

type ReportHandler struct {
	reports *report.Service
}

func NewReportHandler(svc *report.Service) *ReportHandler {
	return &ReportHandler{reports: svc}
}

func reportDay(c *gin.Context) (time.Time, bool) {
	raw := c.Query("day")
	if raw == "" {
		return time.Now().UTC(), true
	}
	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid day, want YYYY-MM-DD")
		return time.Time{}, false
	}
	return day, true
}

// Daily handles GET /api/reports/daily?day=YYYY-MM-DD.
func (h *ReportHandler) Daily(c *gin.Context) {
	day, ok := reportDay(c)
	if !ok {
		return
	}
	r, err := h.reports.Daily(c.Request.Context(), middleware.Caller(c), day)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"day":           r.Day.Format("2006-01-02"),
		"total":         r.Total,
		"by_status":     r.ByStatus,
		"revenue_cents": r.RevenueCents,
	})
}

// DailyPDF handles GET /api/reports/daily.pdf?day=YYYY-MM-DD.
func (h *ReportHandler) DailyPDF(c *gin.Context) {
	day, ok := reportDay(c)
	if !ok {
		return
	}
	data, filename, err := h.reports.DailyPDF(c.Request.Context(), middleware.Caller(c), day)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
