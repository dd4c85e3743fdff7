// README: AI handlers (quota-guarded driver suggestion and notes summarisation).
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vilamourachauffeurs/dispatch/internal/ai"
	"github.com/vilamourachauffeurs/dispatch/internal/http/middleware"
	"github.com/vilamourachauffeurs/dispatch/internal/modules/aiquota"
)

// Estimator enriches suggestion prompts with a travel estimate. Optional.
type Estimator interface {
	TravelEstimate(ctx context.Context, origin, destination string) (time.Duration, string, error)
}

type AIHandler struct {
	assistant ai.Assistant
	quota     *aiquota.Service
	estimator Estimator
}

func NewAIHandler(assistant ai.Assistant, quota *aiquota.Service, estimator Estimator) *AIHandler {
	return &AIHandler{assistant: assistant, quota: quota, estimator: estimator}
}

type suggestDriverReq struct {
	Pickup     string    `json:"pickup"`
	Dropoff    string    `json:"dropoff"`
	PickupTime time.Time `json:"pickup_time"`
	Pax        int       `json:"pax"`
	Notes      string    `json:"notes"`
}

// SuggestDriver handles POST /api/ai/suggest-driver. Admin only.
func (h *AIHandler) SuggestDriver(c *gin.Context) {
	if h.assistant == nil {
		writeError(c, http.StatusBadGateway, ai.ErrSuggestionUnavailable.Error())
		return
	}
	var req suggestDriverReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	req.Pickup = strings.TrimSpace(req.Pickup)
	req.Dropoff = strings.TrimSpace(req.Dropoff)
	if req.Pickup == "" || req.Dropoff == "" || req.PickupTime.IsZero() {
		writeError(c, http.StatusBadRequest, "missing pickup, dropoff or pickup_time")
		return
	}

	caller := middleware.Caller(c)
	if err := h.quota.UseCall(c.Request.Context(), string(caller.UserID)); err != nil {
		writeServiceError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 20*time.Second)
	defer cancel()

	estimate := ""
	if h.estimator != nil {
		if dur, dist, err := h.estimator.TravelEstimate(ctx, req.Pickup, req.Dropoff); err == nil {
			estimate = fmt.Sprintf("%s / %s", dur.Round(time.Minute), dist)
		}
	}

	s, err := h.assistant.SuggestDriver(ctx, ai.SuggestRequest{
		Pickup:         req.Pickup,
		Dropoff:        req.Dropoff,
		PickupTime:     req.PickupTime,
		Pax:            req.Pax,
		Notes:          req.Notes,
		TravelEstimate: estimate,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"driver_id": s.DriverID, "reason": s.Reason})
}

type summarizeNotesReq struct {
	Notes string `json:"notes"`
}

// SummarizeNotes handles POST /api/ai/summarize-notes.
func (h *AIHandler) SummarizeNotes(c *gin.Context) {
	if h.assistant == nil {
		writeError(c, http.StatusBadGateway, ai.ErrSuggestionUnavailable.Error())
		return
	}
	var req summarizeNotesReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Notes) == "" {
		writeError(c, http.StatusBadRequest, "missing notes")
		return
	}

	caller := middleware.Caller(c)
	if err := h.quota.UseCall(c.Request.Context(), string(caller.UserID)); err != nil {
		writeServiceError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	summary, err := h.assistant.SummarizeNotes(ctx, req.Notes)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"summary": summary})
}
