// README: Notification handlers: inbox, read marking, device token registration.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vilamourachauffeurs/dispatch/internal/http/middleware"
	"github.com/vilamourachauffeurs/dispatch/internal/modules/notification"
	"github.com/vilamourachauffeurs/dispatch/internal/types"
)

type NotificationHandler struct {
	notifications *notification.Service
}

func NewNotificationHandler(svc *notification.Service) *NotificationHandler {
	return &NotificationHandler{notifications: svc}
}

type notificationView struct {
	ID        types.ID  `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	BookingID *types.ID `json:"booking_id,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// List handles GET /api/notifications.
func (h *NotificationHandler) List(c *gin.Context) {
	list, err := h.notifications.ListForUser(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	views := make([]notificationView, len(list))
	for i, n := range list {
		views[i] = notificationView{
			ID:        n.ID,
			Kind:      string(n.Kind),
			Title:     n.Title,
			Body:      n.Body,
			BookingID: n.BookingID,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		}
	}
	writeJSON(c, http.StatusOK, gin.H{"notifications": views})
}

// MarkRead handles POST /api/notifications/:id/read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	err := h.notifications.MarkRead(c.Request.Context(), middleware.Caller(c), types.ID(c.Param("id")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"read": true})
}

type registerTokenReq struct {
	Token string `json:"token"`
}

// RegisterToken handles POST /api/notifications/tokens.
func (h *NotificationHandler) RegisterToken(c *gin.Context) {
	var req registerTokenReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.notifications.RegisterToken(c.Request.Context(), middleware.Caller(c), req.Token); err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"registered": true})
}
