// README: Fleet handlers: provisioning, editing, driver listing, presence.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vilamourachauffeurs/dispatch/internal/auth"
	"github.com/vilamourachauffeurs/dispatch/internal/http/middleware"
	"github.com/vilamourachauffeurs/dispatch/internal/modules/booking"
	"github.com/vilamourachauffeurs/dispatch/internal/modules/fleet"
	"github.com/vilamourachauffeurs/dispatch/internal/types"
)

type FleetHandler struct {
	fleet *fleet.Service
}

func NewFleetHandler(svc *fleet.Service) *FleetHandler {
	return &FleetHandler{fleet: svc}
}

type provisionDriverReq struct {
	UserID         string  `json:"user_id"`
	Email          string  `json:"email"`
	Name           string  `json:"name"`
	Phone          string  `json:"phone"`
	VehicleType    string  `json:"vehicle_type"`
	Plate          string  `json:"plate"`
	CommissionRate float64 `json:"commission_rate"`
}

type provisionCompanyReq struct {
	UserID         string  `json:"user_id"`
	Email          string  `json:"email"`
	Name           string  `json:"name"`
	Phone          string  `json:"phone"`
	CommissionRate float64 `json:"commission_rate"`
}

type driverView struct {
	ID             types.ID  `json:"id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone,omitempty"`
	VehicleType    string    `json:"vehicle_type"`
	Plate          string    `json:"plate,omitempty"`
	CommissionRate float64   `json:"commission_rate"`
	Active         bool      `json:"active"`
	Online         bool      `json:"online"`
	CreatedAt      time.Time `json:"created_at"`
}

func toDriverView(d *fleet.Driver) driverView {
	return driverView{
		ID:             d.ID,
		Name:           d.Name,
		Phone:          d.Phone,
		VehicleType:    string(d.VehicleType),
		Plate:          d.Plate,
		CommissionRate: d.CommissionRate,
		Active:         d.Active,
		Online:         d.Online,
		CreatedAt:      d.CreatedAt,
	}
}

// CreateDriver handles POST /api/drivers. Admin only (router-enforced).
func (h *FleetHandler) CreateDriver(c *gin.Context) {
	var req provisionDriverReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	d, err := h.fleet.ProvisionDriver(c.Request.Context(), fleet.ProvisionDriverCommand{
		UserID:         types.ID(req.UserID),
		Email:          req.Email,
		Name:           req.Name,
		Phone:          req.Phone,
		VehicleType:    booking.VehicleType(req.VehicleType),
		Plate:          req.Plate,
		CommissionRate: req.CommissionRate,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, toDriverView(d))
}

// CreatePartner handles POST /api/partners. Admin only.
func (h *FleetHandler) CreatePartner(c *gin.Context) {
	var req provisionCompanyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := h.fleet.ProvisionPartner(c.Request.Context(), fleet.ProvisionPartnerCommand{
		UserID:         types.ID(req.UserID),
		Email:          req.Email,
		Name:           req.Name,
		Phone:          req.Phone,
		CommissionRate: req.CommissionRate,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"id": p.ID, "name": p.Name})
}

// CreateOperator handles POST /api/operators. Admin only.
func (h *FleetHandler) CreateOperator(c *gin.Context) {
	var req provisionCompanyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	o, err := h.fleet.ProvisionOperator(c.Request.Context(), fleet.ProvisionOperatorCommand{
		UserID:         types.ID(req.UserID),
		Email:          req.Email,
		Name:           req.Name,
		Phone:          req.Phone,
		CommissionRate: req.CommissionRate,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"id": o.ID, "name": o.Name})
}

type updateDriverReq struct {
	Name           *string  `json:"name"`
	Phone          *string  `json:"phone"`
	VehicleType    *string  `json:"vehicle_type"`
	Plate          *string  `json:"plate"`
	CommissionRate *float64 `json:"commission_rate"`
	Active         *bool    `json:"active"`
}

// UpdateDriver handles PATCH /api/drivers/:id. Admin only.
func (h *FleetHandler) UpdateDriver(c *gin.Context) {
	var req updateDriverReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	cmd := fleet.UpdateDriverCommand{
		DriverID:       types.ID(c.Param("id")),
		Name:           req.Name,
		Phone:          req.Phone,
		Plate:          req.Plate,
		CommissionRate: req.CommissionRate,
		Active:         req.Active,
	}
	if req.VehicleType != nil {
		vt := booking.VehicleType(*req.VehicleType)
		cmd.VehicleType = &vt
	}
	d, err := h.fleet.UpdateDriver(c.Request.Context(), cmd)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toDriverView(d))
}

type updateCompanyReq struct {
	Name           *string  `json:"name"`
	Email          *string  `json:"email"`
	Phone          *string  `json:"phone"`
	CommissionRate *float64 `json:"commission_rate"`
	Active         *bool    `json:"active"`
}

func (r updateCompanyReq) command(id string) fleet.UpdateCompanyCommand {
	return fleet.UpdateCompanyCommand{
		ID:             types.ID(id),
		Name:           r.Name,
		Email:          r.Email,
		Phone:          r.Phone,
		CommissionRate: r.CommissionRate,
		Active:         r.Active,
	}
}

// UpdatePartner handles PATCH /api/partners/:id. Admin only.
func (h *FleetHandler) UpdatePartner(c *gin.Context) {
	var req updateCompanyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := h.fleet.UpdatePartner(c.Request.Context(), req.command(c.Param("id")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, companyView{ID: p.ID, Name: p.Name, Email: p.Email, Phone: p.Phone, CommissionRate: p.CommissionRate, Active: p.Active, CreatedAt: p.CreatedAt})
}

// UpdateOperator handles PATCH /api/operators/:id. Admin only.
func (h *FleetHandler) UpdateOperator(c *gin.Context) {
	var req updateCompanyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	o, err := h.fleet.UpdateOperator(c.Request.Context(), req.command(c.Param("id")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, companyView{ID: o.ID, Name: o.Name, Email: o.Email, Phone: o.Phone, CommissionRate: o.CommissionRate, Active: o.Active, CreatedAt: o.CreatedAt})
}

type companyView struct {
	ID             types.ID  `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone,omitempty"`
	CommissionRate float64   `json:"commission_rate"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
}

// ListPartners handles GET /api/partners. Admin only.
func (h *FleetHandler) ListPartners(c *gin.Context) {
	partners, err := h.fleet.ListPartners(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	views := make([]companyView, len(partners))
	for i, p := range partners {
		views[i] = companyView{ID: p.ID, Name: p.Name, Email: p.Email, Phone: p.Phone, CommissionRate: p.CommissionRate, Active: p.Active, CreatedAt: p.CreatedAt}
	}
	writeJSON(c, http.StatusOK, gin.H{"partners": views})
}

// ListOperators handles GET /api/operators. Admin only.
func (h *FleetHandler) ListOperators(c *gin.Context) {
	operators, err := h.fleet.ListOperators(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	views := make([]companyView, len(operators))
	for i, o := range operators {
		views[i] = companyView{ID: o.ID, Name: o.Name, Email: o.Email, Phone: o.Phone, CommissionRate: o.CommissionRate, Active: o.Active, CreatedAt: o.CreatedAt}
	}
	writeJSON(c, http.StatusOK, gin.H{"operators": views})
}

type provisionUserReq struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	RelatedID string `json:"related_id"`
}

// CreateUser handles POST /api/users. Admin only.
func (h *FleetHandler) CreateUser(c *gin.Context) {
	var req provisionUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	u, err := h.fleet.ProvisionUser(c.Request.Context(), fleet.ProvisionUserCommand{
		UserID:    types.ID(req.UserID),
		Email:     req.Email,
		Name:      req.Name,
		Role:      req.Role,
		RelatedID: types.ID(req.RelatedID),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"id": u.ID, "role": u.Role})
}

// GetDriver handles GET /api/drivers/:id.
func (h *FleetHandler) GetDriver(c *gin.Context) {
	d, err := h.fleet.GetDriver(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toDriverView(d))
}

// ListDrivers handles GET /api/drivers?online=true. Admin only.
func (h *FleetHandler) ListDrivers(c *gin.Context) {
	onlineOnly := c.Query("online") == "true"
	drivers, err := h.fleet.AvailableDrivers(c.Request.Context(), onlineOnly)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	views := make([]driverView, len(drivers))
	for i, d := range drivers {
		views[i] = toDriverView(d)
	}
	writeJSON(c, http.StatusOK, gin.H{"drivers": views})
}

// Heartbeat handles POST /api/drivers/presence. Drivers report their own shift.
func (h *FleetHandler) Heartbeat(c *gin.Context) {
	caller := middleware.Caller(c)
	if caller.Role != auth.RoleDriver {
		writeError(c, http.StatusForbidden, "drivers only")
		return
	}
	if err := h.fleet.Heartbeat(c.Request.Context(), caller.UserID); err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"online": true})
}

// Offline handles DELETE /api/drivers/presence.
func (h *FleetHandler) Offline(c *gin.Context) {
	caller := middleware.Caller(c)
	if caller.Role != auth.RoleDriver {
		writeError(c, http.StatusForbidden, "drivers only")
		return
	}
	if err := h.fleet.Offline(c.Request.Context(), caller.UserID); err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"online": false})
}
