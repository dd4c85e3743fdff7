// README: Booking service implements lifecycle transitions, assignment, and visibility.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/vilamourachauffeurs/dispatch/internal/auth"
	"github.com/vilamourachauffeurs/dispatch/internal/types"
)

var (
	ErrNotFound          = errors.New("booking not found")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrInvalidState      = errors.New("booking is in a terminal state")
	ErrConflict          = errors.New("booking state conflict")
	ErrUnauthorized      = errors.New("actor not allowed")
	ErrBadRequest        = errors.New("bad request")
)

// Notifier delivers booking notifications. Calls are fire and forget; a
// delivery failure never fails the booking operation that triggered it.
type Notifier interface {
	BookingRequested(ctx context.Context, b *Booking)
	JobAssigned(ctx context.Context, b *Booking, driverID types.ID)
}

// Directory answers whether an assignee entity exists.
type Directory interface {
	Exists(ctx context.Context, kind AssigneeType, id types.ID) (bool, error)
}

// conflictRetries bounds the reload-and-retry loop when a guarded status
// write loses a race. Past that the caller gets ErrConflict.
const conflictRetries = 3

type Service struct {
	store     *Store
	notifier  Notifier
	directory Directory
}

func NewService(store *Store, notifier Notifier, directory Directory) *Service {
	return &Service{store: store, notifier: notifier, directory: directory}
}

type CreateCommand struct {
	Actor       auth.Context
	ClientName  string
	RequestedBy string
	Pickup      string
	Dropoff     string
	PickupTime  time.Time
	Pax         int
	CostCents   int64
	PaymentType PaymentType
	Urgency     Urgency
	Notes       string
	Draft       bool
}

// UpdateCommand patches booking details. Nil fields are left untouched.
// Status, code, and assignees are never editable through this path.
type UpdateCommand struct {
	Actor       auth.Context
	BookingID   types.ID
	ClientName  *string
	RequestedBy *string
	Pickup      *string
	Dropoff     *string
	PickupTime  *time.Time
	Pax         *int
	CostCents   *int64
	PaymentType *PaymentType
	Urgency     *Urgency
	Notes       *string
}

type ChangeStatusCommand struct {
	Actor     auth.Context
	BookingID types.ID
	To        Status
}

type AssignCommand struct {
	Actor      auth.Context
	BookingID  types.ID
	Kind       AssigneeType
	AssigneeID types.ID
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Booking, error) {
	if cmd.ClientName == "" || cmd.Pickup == "" || cmd.Dropoff == "" || cmd.Pax <= 0 {
		return nil, ErrBadRequest
	}
	if cmd.PickupTime.IsZero() || cmd.CostCents < 0 {
		return nil, ErrBadRequest
	}
	if !ValidPaymentType(cmd.PaymentType) {
		return nil, ErrBadRequest
	}
	if cmd.Urgency != UrgencyRightNow && cmd.Urgency != UrgencyInAdvance {
		return nil, ErrBadRequest
	}

	status := StatusPendingAdmin
	if cmd.Draft {
		status = StatusDraft
	}
	now := time.Now().UTC()
	b := &Booking{
		ID:            types.ID(uuid.NewString()),
		ClientName:    cmd.ClientName,
		CreatedBy:     cmd.Actor.UserID,
		RequestedBy:   cmd.RequestedBy,
		Pickup:        cmd.Pickup,
		Dropoff:       cmd.Dropoff,
		PickupTime:    cmd.PickupTime,
		Pax:           cmd.Pax,
		VehicleType:   VehicleClassFor(cmd.Pax),
		Status:        status,
		StatusVersion: 0,
		Cost:          types.EUR(cmd.CostCents),
		PaymentType:   cmd.PaymentType,
		Urgency:       cmd.Urgency,
		Notes:         cmd.Notes,
		CreatedAt:     now,
	}
	if err := s.store.Create(ctx, b); err != nil {
		return nil, err
	}
	_ = s.store.AppendEvent(ctx, &Event{
		BookingID:  b.ID,
		FromStatus: "",
		ToStatus:   status,
		ActorID:    cmd.Actor.UserID,
		ActorRole:  cmd.Actor.Role,
		CreatedAt:  now,
	})
	if status == StatusPendingAdmin && s.notifier != nil {
		s.notifier.BookingRequested(ctx, b)
	}
	return b, nil
}

// Get returns the booking if the caller's visibility predicate admits it.
// An existing booking outside the caller's view reads as not found, so the
// response never leaks whether the ID exists.
func (s *Service) Get(ctx context.Context, actor auth.Context, id types.ID) (*Booking, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !VisibilityFilter(actor).Matches(b) {
		return nil, ErrNotFound
	}
	return b, nil
}

func (s *Service) List(ctx context.Context, actor auth.Context) ([]*Booking, error) {
	return s.store.List(ctx, VisibilityFilter(actor))
}

// Update edits booking details in place. Admins may edit any visible booking;
// other roles only what they created. Terminal bookings are frozen.
func (s *Service) Update(ctx context.Context, cmd UpdateCommand) (*Booking, error) {
	b, err := s.Get(ctx, cmd.Actor, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if !cmd.Actor.IsAdmin() && b.CreatedBy != cmd.Actor.UserID {
		return nil, ErrUnauthorized
	}
	if IsTerminal(b.Status) {
		return nil, ErrInvalidState
	}

	if cmd.ClientName != nil {
		if *cmd.ClientName == "" {
			return nil, ErrBadRequest
		}
		b.ClientName = *cmd.ClientName
	}
	if cmd.RequestedBy != nil {
		b.RequestedBy = *cmd.RequestedBy
	}
	if cmd.Pickup != nil {
		if *cmd.Pickup == "" {
			return nil, ErrBadRequest
		}
		b.Pickup = *cmd.Pickup
	}
	if cmd.Dropoff != nil {
		if *cmd.Dropoff == "" {
			return nil, ErrBadRequest
		}
		b.Dropoff = *cmd.Dropoff
	}
	if cmd.PickupTime != nil {
		if cmd.PickupTime.IsZero() {
			return nil, ErrBadRequest
		}
		b.PickupTime = *cmd.PickupTime
	}
	if cmd.Pax != nil {
		if *cmd.Pax <= 0 {
			return nil, ErrBadRequest
		}
		b.Pax = *cmd.Pax
		b.VehicleType = VehicleClassFor(b.Pax)
	}
	if cmd.CostCents != nil {
		if *cmd.CostCents < 0 {
			return nil, ErrBadRequest
		}
		b.Cost = types.EUR(*cmd.CostCents)
	}
	if cmd.PaymentType != nil {
		if !ValidPaymentType(*cmd.PaymentType) {
			return nil, ErrBadRequest
		}
		b.PaymentType = *cmd.PaymentType
	}
	if cmd.Urgency != nil {
		if *cmd.Urgency != UrgencyRightNow && *cmd.Urgency != UrgencyInAdvance {
			return nil, ErrBadRequest
		}
		b.Urgency = *cmd.Urgency
	}
	if cmd.Notes != nil {
		b.Notes = *cmd.Notes
	}

	if err := s.store.UpdateDetails(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ChangeStatus moves the booking along the transition table. A request for
// the status the booking already has is a no-op and returns the booking
// unchanged. Lost races against concurrent writers are retried a bounded
// number of times before surfacing ErrConflict.
func (s *Service) ChangeStatus(ctx context.Context, cmd ChangeStatusCommand) (*Booking, error) {
	for attempt := 0; attempt < conflictRetries; attempt++ {
		b, err := s.Get(ctx, cmd.Actor, cmd.BookingID)
		if err != nil {
			return nil, err
		}
		if b.Status == cmd.To {
			return b, nil
		}
		if !CanTransition(b.Status, cmd.To) {
			return nil, ErrInvalidTransition
		}
		if !TransitionAllowedFor(b, cmd.Actor) {
			return nil, ErrUnauthorized
		}
		ok, err := s.store.UpdateStatus(ctx, b.ID, b.Status, cmd.To, b.StatusVersion)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		_ = s.store.AppendEvent(ctx, &Event{
			BookingID:  b.ID,
			FromStatus: b.Status,
			ToStatus:   cmd.To,
			ActorID:    cmd.Actor.UserID,
			ActorRole:  cmd.Actor.Role,
			CreatedAt:  time.Now().UTC(),
		})
		b.Status = cmd.To
		b.StatusVersion++
		return b, nil
	}
	return nil, ErrConflict
}

// Assign hands the booking to exactly one driver, partner, or operator.
// Admin only. The write is a single atomic update, so no reader can observe
// two assignees, and it is refused on terminal bookings.
func (s *Service) Assign(ctx context.Context, cmd AssignCommand) (*Booking, error) {
	if !cmd.Actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	if !ValidAssigneeType(cmd.Kind) || cmd.AssigneeID == "" {
		return nil, ErrBadRequest
	}
	if s.directory != nil {
		exists, err := s.directory.Exists(ctx, cmd.Kind, cmd.AssigneeID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrBadRequest
		}
	}

	b, err := s.store.Get(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if IsTerminal(b.Status) {
		return nil, ErrInvalidState
	}

	ok, err := s.store.AssignExclusive(ctx, b.ID, cmd.Kind, cmd.AssigneeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	_ = s.store.AppendEvent(ctx, &Event{
		BookingID:  b.ID,
		FromStatus: b.Status,
		ToStatus:   StatusAssigned,
		ActorID:    cmd.Actor.UserID,
		ActorRole:  cmd.Actor.Role,
		CreatedAt:  time.Now().UTC(),
	})

	updated, err := s.store.Get(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if cmd.Kind == AssigneeDriver && s.notifier != nil {
		s.notifier.JobAssigned(ctx, updated, cmd.AssigneeID)
	}
	return updated, nil
}

// Events returns the status audit trail, subject to the same visibility rule
// as Get.
func (s *Service) Events(ctx context.Context, actor auth.Context, id types.ID) ([]*Event, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.store.ListEvents(ctx, id)
}
