// README: Booking handlers: create, list, get, edit, status change, assignment, audit trail.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vilamourachauffeurs/dispatch/internal/http/middleware"
	"github.com/vilamourachauffeurs/dispatch/internal/modules/booking"
	"github.com/vilamourachauffeurs/dispatch/internal/types"
)

type BookingHandler struct {
	booking *booking.Service
}

func NewBookingHandler(svc *booking.Service) *BookingHandler {
	return &BookingHandler{booking: svc}
}

type createBookingReq struct {
	ClientName  string    `json:"client_name"`
	RequestedBy string    `json:"requested_by"`
	Pickup      string    `json:"pickup"`
	Dropoff     string    `json:"dropoff"`
	PickupTime  time.Time `json:"pickup_time"`
	Pax         int       `json:"pax"`
	CostCents   int64     `json:"cost_cents"`
	PaymentType string    `json:"payment_type"`
	Urgency     string    `json:"urgency"`
	Notes       string    `json:"notes"`
	Draft       bool      `json:"draft"`
}

type bookingView struct {
	ID          types.ID  `json:"id"`
	Code        string    `json:"code"`
	ClientName  string    `json:"client_name"`
	RequestedBy string    `json:"requested_by,omitempty"`
	PartnerID   *types.ID `json:"partner_id,omitempty"`
	OperatorID  *types.ID `json:"operator_id,omitempty"`
	DriverID    *types.ID `json:"driver_id,omitempty"`
	Pickup      string    `json:"pickup"`
	Dropoff     string    `json:"dropoff"`
	PickupTime  time.Time `json:"pickup_time"`
	Pax         int       `json:"pax"`
	VehicleType string    `json:"vehicle_type"`
	Status      string    `json:"status"`
	CostCents   int64     `json:"cost_cents"`
	Currency    string    `json:"currency"`
	PaymentType string    `json:"payment_type"`
	Urgency     string    `json:"urgency"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toBookingView(b *booking.Booking) bookingView {
	return bookingView{
		ID:          b.ID,
		Code:        b.Code,
		ClientName:  b.ClientName,
		RequestedBy: b.RequestedBy,
		PartnerID:   b.PartnerID,
		OperatorID:  b.OperatorID,
		DriverID:    b.DriverID,
		Pickup:      b.Pickup,
		Dropoff:     b.Dropoff,
		PickupTime:  b.PickupTime,
		Pax:         b.Pax,
		VehicleType: string(b.VehicleType),
		Status:      string(b.Status),
		CostCents:   b.Cost.Amount,
		Currency:    b.Cost.Currency,
		PaymentType: string(b.PaymentType),
		Urgency:     string(b.Urgency),
		Notes:       b.Notes,
		CreatedAt:   b.CreatedAt,
	}
}

// Create handles POST /api/bookings.
func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	b, err := h.booking.Create(c.Request.Context(), booking.CreateCommand{
		Actor:       middleware.Caller(c),
		ClientName:  req.ClientName,
		RequestedBy: req.RequestedBy,
		Pickup:      req.Pickup,
		Dropoff:     req.Dropoff,
		PickupTime:  req.PickupTime,
		Pax:         req.Pax,
		CostCents:   req.CostCents,
		PaymentType: booking.PaymentType(req.PaymentType),
		Urgency:     booking.Urgency(req.Urgency),
		Notes:       req.Notes,
		Draft:       req.Draft,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, toBookingView(b))
}

// List handles GET /api/bookings. Visibility is enforced by the service.
func (h *BookingHandler) List(c *gin.Context) {
	bookings, err := h.booking.List(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	views := make([]bookingView, len(bookings))
	for i, b := range bookings {
		views[i] = toBookingView(b)
	}
	writeJSON(c, http.StatusOK, gin.H{"bookings": views})
}

// Get handles GET /api/bookings/:id.
func (h *BookingHandler) Get(c *gin.Context) {
	b, err := h.booking.Get(c.Request.Context(), middleware.Caller(c), types.ID(c.Param("id")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toBookingView(b))
}

type updateBookingReq struct {
	ClientName  *string    `json:"client_name"`
	RequestedBy *string    `json:"requested_by"`
	Pickup      *string    `json:"pickup"`
	Dropoff     *string    `json:"dropoff"`
	PickupTime  *time.Time `json:"pickup_time"`
	Pax         *int       `json:"pax"`
	CostCents   *int64     `json:"cost_cents"`
	PaymentType *string    `json:"payment_type"`
	Urgency     *string    `json:"urgency"`
	Notes       *string    `json:"notes"`
}

// Update handles PATCH /api/bookings/:id. Absent fields stay as they are.
func (h *BookingHandler) Update(c *gin.Context) {
	var req updateBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	cmd := booking.UpdateCommand{
		Actor:       middleware.Caller(c),
		BookingID:   types.ID(c.Param("id")),
		ClientName:  req.ClientName,
		RequestedBy: req.RequestedBy,
		Pickup:      req.Pickup,
		Dropoff:     req.Dropoff,
		PickupTime:  req.PickupTime,
		Pax:         req.Pax,
		CostCents:   req.CostCents,
		Notes:       req.Notes,
	}
	if req.PaymentType != nil {
		pt := booking.PaymentType(*req.PaymentType)
		cmd.PaymentType = &pt
	}
	if req.Urgency != nil {
		u := booking.Urgency(*req.Urgency)
		cmd.Urgency = &u
	}
	b, err := h.booking.Update(c.Request.Context(), cmd)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toBookingView(b))
}

type changeStatusReq struct {
	Status string `json:"status"`
}

// ChangeStatus handles POST /api/bookings/:id/status.
func (h *BookingHandler) ChangeStatus(c *gin.Context) {
	var req changeStatusReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		writeError(c, http.StatusBadRequest, "missing status")
		return
	}
	b, err := h.booking.ChangeStatus(c.Request.Context(), booking.ChangeStatusCommand{
		Actor:     middleware.Caller(c),
		BookingID: types.ID(c.Param("id")),
		To:        booking.Status(req.Status),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toBookingView(b))
}

type assignReq struct {
	Kind       string `json:"kind"`
	AssigneeID string `json:"assignee_id"`
}

// Assign handles POST /api/bookings/:id/assign. Admin only.
func (h *BookingHandler) Assign(c *gin.Context) {
	var req assignReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	b, err := h.booking.Assign(c.Request.Context(), booking.AssignCommand{
		Actor:      middleware.Caller(c),
		BookingID:  types.ID(c.Param("id")),
		Kind:       booking.AssigneeType(req.Kind),
		AssigneeID: types.ID(req.AssigneeID),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toBookingView(b))
}

type eventView struct {
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status"`
	ActorID    types.ID  `json:"actor_id"`
	ActorRole  string    `json:"actor_role"`
	CreatedAt  time.Time `json:"created_at"`
}

// Events handles GET /api/bookings/:id/events.
func (h *BookingHandler) Events(c *gin.Context) {
	events, err := h.booking.Events(c.Request.Context(), middleware.Caller(c), types.ID(c.Param("id")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	views := make([]eventView, len(events))
	for i, e := range events {
		views[i] = eventView{
			FromStatus: string(e.FromStatus),
			ToStatus:   string(e.ToStatus),
			ActorID:    e.ActorID,
			ActorRole:  string(e.ActorRole),
			CreatedAt:  e.CreatedAt,
		}
	}
	writeJSON(c, http.StatusOK, gin.H{"events": views})
}
