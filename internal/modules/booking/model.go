// README: Booking aggregate, status transition table, and role gating.
package booking

import (
	"time"

	"github.com/vilamourachauffeurs/dispatch/internal/auth"
	"github.com/vilamourachauffeurs/dispatch/internal/types"
)

type Status string

const (
	StatusDraft        Status = "draft"
	StatusPendingAdmin Status = "pending_admin"
	StatusApproved     Status = "approved"
	StatusAssigned     Status = "assigned"
	StatusConfirmed    Status = "confirmed"
	StatusInProgress   Status = "in_progress"
	StatusCompleted    Status = "completed"
	StatusCancelled    Status = "cancelled"
)

type PaymentType string

const (
	PaymentDriver  PaymentType = "driver"
	PaymentMB      PaymentType = "mb"
	PaymentAccount PaymentType = "account"
)

type VehicleType string

const (
	VehicleSedan   VehicleType = "Sedan"
	VehicleMinivan VehicleType = "Minivan"
)

// MinivanPaxThreshold is the passenger count above which a Minivan is required.
const MinivanPaxThreshold = 4

type Urgency string

const (
	UrgencyRightNow  Urgency = "rightNow"
	UrgencyInAdvance Urgency = "inAdvance"
)

// AssigneeType names the kind of party a booking can be handed to.
// A booking has at most one active assignee at any time.
type AssigneeType string

const (
	AssigneeDriver   AssigneeType = "driver"
	AssigneePartner  AssigneeType = "partner"
	AssigneeOperator AssigneeType = "operator"
)

type Booking struct {
	ID            types.ID
	Code          string // human-readable YYMMDDnnn, allocated at creation
	ClientName    string
	CreatedBy     types.ID
	RequestedBy   string
	PartnerID     *types.ID
	OperatorID    *types.ID
	DriverID      *types.ID
	Pickup        string
	Dropoff       string
	PickupTime    time.Time
	Pax           int
	VehicleType   VehicleType
	Status        Status
	StatusVersion int
	Cost          types.Money
	PaymentType   PaymentType
	Urgency       Urgency
	Notes         string
	CreatedAt     time.Time
}

// Event is one row of the append-only status audit trail.
type Event struct {
	ID         int64
	BookingID  types.ID
	FromStatus Status
	ToStatus   Status
	ActorID    types.ID
	ActorRole  auth.Role
	CreatedAt  time.Time
}

// AllowedTransitions is the authoritative status flow. Terminal states have no
// outgoing transitions.
var AllowedTransitions = map[Status][]Status{
	StatusDraft:        {StatusPendingAdmin, StatusCancelled},
	StatusPendingAdmin: {StatusApproved, StatusCancelled},
	StatusApproved:     {StatusAssigned, StatusCancelled},
	StatusAssigned:     {StatusConfirmed, StatusCancelled},
	StatusConfirmed:    {StatusInProgress, StatusCancelled},
	StatusInProgress:   {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

func IsTerminal(s Status) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// TransitionAllowedFor reports whether actor may move b out of its current
// status. The per-status actor sets:
//
//	draft                           creator, admin
//	pending_admin, approved         admin
//	assigned, confirmed, in_progress admin, assigned driver
func TransitionAllowedFor(b *Booking, actor auth.Context) bool {
	switch b.Status {
	case StatusDraft:
		return actor.IsAdmin() || b.CreatedBy == actor.UserID
	case StatusPendingAdmin, StatusApproved:
		return actor.IsAdmin()
	case StatusAssigned, StatusConfirmed, StatusInProgress:
		if actor.IsAdmin() {
			return true
		}
		return actor.Role == auth.RoleDriver && b.DriverID != nil && *b.DriverID == actor.UserID
	}
	return false
}

// VehicleClassFor derives the vehicle class from the passenger count.
func VehicleClassFor(pax int) VehicleType {
	if pax > MinivanPaxThreshold {
		return VehicleMinivan
	}
	return VehicleSedan
}

func ValidPaymentType(p PaymentType) bool {
	return p == PaymentDriver || p == PaymentMB || p == PaymentAccount
}

func ValidAssigneeType(t AssigneeType) bool {
	return t == AssigneeDriver || t == AssigneePartner || t == AssigneeOperator
}

// Assignee returns the active assignee reference, if any.
func (b *Booking) Assignee() (AssigneeType, types.ID, bool) {
	switch {
	case b.DriverID != nil:
		return AssigneeDriver, *b.DriverID, true
	case b.PartnerID != nil:
		return AssigneePartner, *b.PartnerID, true
	case b.OperatorID != nil:
		return AssigneeOperator, *b.OperatorID, true
	}
	return "", "", false
}
