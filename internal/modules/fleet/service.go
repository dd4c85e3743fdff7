// README: Fleet service: provisioning, caller resolution, and driver availability.
package fleet

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vilamourachauffeurs/dispatch/internal/auth"
	"github.com/vilamourachauffeurs/dispatch/internal/modules/booking"
	"github.com/vilamourachauffeurs/dispatch/internal/types"
)

var (
	ErrNotFound   = errors.New("fleet entity not found")
	ErrBadRequest = errors.New("bad request")
)

type Service struct {
	store    *Store
	presence *Presence
}

func NewService(store *Store, presence *Presence) *Service {
	return &Service{store: store, presence: presence}
}

type ProvisionDriverCommand struct {
	UserID         types.ID // Firebase UID; doubles as the driver ID
	Email          string
	Name           string
	Phone          string
	VehicleType    booking.VehicleType
	Plate          string
	CommissionRate float64
}

type ProvisionPartnerCommand struct {
	UserID         types.ID
	Email          string
	Name           string
	Phone          string
	CommissionRate float64
}

type ProvisionOperatorCommand struct {
	UserID         types.ID
	Email          string
	Name           string
	Phone          string
	CommissionRate float64
}

type ProvisionUserCommand struct {
	UserID    types.ID
	Email     string
	Name      string
	Role      string
	RelatedID types.ID // partner or operator company, required for those roles
}

// ProvisionUser creates a dashboard account for an existing entity. Driver
// accounts are normally created through ProvisionDriver; this covers admins
// and extra users attached to an existing partner or operator company.
func (s *Service) ProvisionUser(ctx context.Context, cmd ProvisionUserCommand) (*User, error) {
	if cmd.UserID == "" || cmd.Name == "" || strings.TrimSpace(cmd.Email) == "" {
		return nil, ErrBadRequest
	}
	role, ok := auth.ParseRole(cmd.Role)
	if !ok {
		return nil, ErrBadRequest
	}

	u := &User{
		ID:        cmd.UserID,
		Email:     strings.ToLower(strings.TrimSpace(cmd.Email)),
		Name:      cmd.Name,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	switch role {
	case auth.RolePartner:
		if _, err := s.store.GetPartner(ctx, cmd.RelatedID); err != nil {
			return nil, err
		}
		rid := cmd.RelatedID
		u.RelatedID = &rid
	case auth.RoleOperator:
		if _, err := s.store.GetOperator(ctx, cmd.RelatedID); err != nil {
			return nil, err
		}
		rid := cmd.RelatedID
		u.RelatedID = &rid
	case auth.RoleDriver:
		// Driver accounts share the driver's ID; the entity must exist.
		if _, err := s.store.GetDriver(ctx, cmd.UserID); err != nil {
			return nil, err
		}
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ProvisionDriver creates the driver entity and its user account in one go.
// The driver ID is the user ID.
func (s *Service) ProvisionDriver(ctx context.Context, cmd ProvisionDriverCommand) (*Driver, error) {
	if cmd.UserID == "" || cmd.Name == "" || strings.TrimSpace(cmd.Email) == "" {
		return nil, ErrBadRequest
	}
	if cmd.CommissionRate < 0 || cmd.CommissionRate > 1 {
		return nil, ErrBadRequest
	}
	vt := cmd.VehicleType
	if vt == "" {
		vt = booking.VehicleSedan
	}
	now := time.Now().UTC()
	d := &Driver{
		ID:             cmd.UserID,
		Name:           cmd.Name,
		Phone:          cmd.Phone,
		VehicleType:    vt,
		Plate:          cmd.Plate,
		CommissionRate: cmd.CommissionRate,
		Active:         true,
		CreatedAt:      now,
	}
	u := &User{
		ID:        cmd.UserID,
		Email:     strings.ToLower(strings.TrimSpace(cmd.Email)),
		Name:      cmd.Name,
		Role:      auth.RoleDriver,
		CreatedAt: now,
	}
	if err := s.store.CreateDriverWithUser(ctx, d, u); err != nil {
		return nil, err
	}
	return d, nil
}

// ProvisionPartner creates the partner company and links the user to it.
func (s *Service) ProvisionPartner(ctx context.Context, cmd ProvisionPartnerCommand) (*Partner, error) {
	if cmd.UserID == "" || cmd.Name == "" || strings.TrimSpace(cmd.Email) == "" {
		return nil, ErrBadRequest
	}
	if cmd.CommissionRate < 0 || cmd.CommissionRate > 1 {
		return nil, ErrBadRequest
	}
	now := time.Now().UTC()
	p := &Partner{
		ID:             types.ID(uuid.NewString()),
		Name:           cmd.Name,
		Email:          strings.ToLower(strings.TrimSpace(cmd.Email)),
		Phone:          cmd.Phone,
		CommissionRate: cmd.CommissionRate,
		Active:         true,
		CreatedAt:      now,
	}
	u := &User{
		ID:        cmd.UserID,
		Email:     p.Email,
		Name:      cmd.Name,
		Role:      auth.RolePartner,
		RelatedID: &p.ID,
		CreatedAt: now,
	}
	if err := s.store.CreatePartnerWithUser(ctx, p, u); err != nil {
		return nil, err
	}
	return p, nil
}

// ProvisionOperator mirrors ProvisionPartner for operator companies.
func (s *Service) ProvisionOperator(ctx context.Context, cmd ProvisionOperatorCommand) (*Operator, error) {
	if cmd.UserID == "" || cmd.Name == "" || strings.TrimSpace(cmd.Email) == "" {
		return nil, ErrBadRequest
	}
	if cmd.CommissionRate < 0 || cmd.CommissionRate > 1 {
		return nil, ErrBadRequest
	}
	now := time.Now().UTC()
	o := &Operator{
		ID:             types.ID(uuid.NewString()),
		Name:           cmd.Name,
		Email:          strings.ToLower(strings.TrimSpace(cmd.Email)),
		Phone:          cmd.Phone,
		CommissionRate: cmd.CommissionRate,
		Active:         true,
		CreatedAt:      now,
	}
	u := &User{
		ID:        cmd.UserID,
		Email:     o.Email,
		Name:      cmd.Name,
		Role:      auth.RoleOperator,
		RelatedID: &o.ID,
		CreatedAt: now,
	}
	if err := s.store.CreateOperatorWithUser(ctx, o, u); err != nil {
		return nil, err
	}
	return o, nil
}

// UpdateDriverCommand patches driver details. Nil fields stay untouched.
type UpdateDriverCommand struct {
	DriverID       types.ID
	Name           *string
	Phone          *string
	VehicleType    *booking.VehicleType
	Plate          *string
	CommissionRate *float64
	Active         *bool
}

// UpdateCompanyCommand patches a partner or operator record.
type UpdateCompanyCommand struct {
	ID             types.ID
	Name           *string
	Email          *string
	Phone          *string
	CommissionRate *float64
	Active         *bool
}

// UpdateDriver edits a driver in place. Admin only (router-enforced).
func (s *Service) UpdateDriver(ctx context.Context, cmd UpdateDriverCommand) (*Driver, error) {
	d, err := s.store.GetDriver(ctx, cmd.DriverID)
	if err != nil {
		return nil, err
	}
	if cmd.Name != nil {
		if *cmd.Name == "" {
			return nil, ErrBadRequest
		}
		d.Name = *cmd.Name
	}
	if cmd.Phone != nil {
		d.Phone = *cmd.Phone
	}
	if cmd.VehicleType != nil {
		if *cmd.VehicleType != booking.VehicleSedan && *cmd.VehicleType != booking.VehicleMinivan {
			return nil, ErrBadRequest
		}
		d.VehicleType = *cmd.VehicleType
	}
	if cmd.Plate != nil {
		d.Plate = *cmd.Plate
	}
	if cmd.CommissionRate != nil {
		if *cmd.CommissionRate < 0 || *cmd.CommissionRate > 1 {
			return nil, ErrBadRequest
		}
		d.CommissionRate = *cmd.CommissionRate
	}
	if cmd.Active != nil {
		d.Active = *cmd.Active
	}
	if err := s.store.UpdateDriver(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func applyCompanyPatch(cmd UpdateCompanyCommand, name, email, phone *string, rate *float64, active *bool) error {
	if cmd.Name != nil {
		if *cmd.Name == "" {
			return ErrBadRequest
		}
		*name = *cmd.Name
	}
	if cmd.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*cmd.Email))
		if e == "" {
			return ErrBadRequest
		}
		*email = e
	}
	if cmd.Phone != nil {
		*phone = *cmd.Phone
	}
	if cmd.CommissionRate != nil {
		if *cmd.CommissionRate < 0 || *cmd.CommissionRate > 1 {
			return ErrBadRequest
		}
		*rate = *cmd.CommissionRate
	}
	if cmd.Active != nil {
		*active = *cmd.Active
	}
	return nil
}

// UpdatePartner edits a partner company in place. Admin only.
func (s *Service) UpdatePartner(ctx context.Context, cmd UpdateCompanyCommand) (*Partner, error) {
	p, err := s.store.GetPartner(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	if err := applyCompanyPatch(cmd, &p.Name, &p.Email, &p.Phone, &p.CommissionRate, &p.Active); err != nil {
		return nil, err
	}
	if err := s.store.UpdatePartner(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateOperator edits an operator company in place. Admin only.
func (s *Service) UpdateOperator(ctx context.Context, cmd UpdateCompanyCommand) (*Operator, error) {
	o, err := s.store.GetOperator(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	if err := applyCompanyPatch(cmd, &o.Name, &o.Email, &o.Phone, &o.CommissionRate, &o.Active); err != nil {
		return nil, err
	}
	if err := s.store.UpdateOperator(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) GetDriver(ctx context.Context, id types.ID) (*Driver, error) {
	return s.store.GetDriver(ctx, id)
}

func (s *Service) GetPartner(ctx context.Context, id types.ID) (*Partner, error) {
	return s.store.GetPartner(ctx, id)
}

func (s *Service) GetOperator(ctx context.Context, id types.ID) (*Operator, error) {
	return s.store.GetOperator(ctx, id)
}

func (s *Service) ListPartners(ctx context.Context) ([]*Partner, error) {
	return s.store.ListPartners(ctx)
}

func (s *Service) ListOperators(ctx context.Context) ([]*Operator, error) {
	return s.store.ListOperators(ctx)
}

func (s *Service) ResolveContext(ctx context.Context, uid string) (auth.Context, error) {
	return s.store.ResolveContext(ctx, uid)
}

// Exists implements the assignee directory used by the booking service.
func (s *Service) Exists(ctx context.Context, kind booking.AssigneeType, id types.ID) (bool, error) {
	return s.store.Exists(ctx, kind, id)
}

func (s *Service) Heartbeat(ctx context.Context, driverID types.ID) error {
	if s.presence == nil {
		return nil
	}
	return s.presence.Heartbeat(ctx, driverID)
}

func (s *Service) Offline(ctx context.Context, driverID types.ID) error {
	if s.presence == nil {
		return nil
	}
	return s.presence.Offline(ctx, driverID)
}

// AvailableDrivers lists active drivers annotated with their presence state.
// When onlineOnly is set, drivers without a live heartbeat are dropped.
func (s *Service) AvailableDrivers(ctx context.Context, onlineOnly bool) ([]*Driver, error) {
	drivers, err := s.store.ListActiveDrivers(ctx)
	if err != nil {
		return nil, err
	}
	if s.presence == nil || len(drivers) == 0 {
		return drivers, nil
	}

	ids := make([]types.ID, len(drivers))
	for i, d := range drivers {
		ids[i] = d.ID
	}
	online, err := s.presence.OnlineSet(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := drivers[:0]
	for _, d := range drivers {
		d.Online = online[d.ID]
		if onlineOnly && !d.Online {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}
