// README: Notification records and push payloads.
package notification

import (
	"time"

	"github.com/vilamourachauffeurs/dispatch/internal/types"
)

type Kind string

const (
	KindBookingRequest Kind = "booking_request"
	KindJobAssigned    Kind = "job_assigned"
)

type Notification struct {
	ID        types.ID
	UserID    types.ID
	Kind      Kind
	Title     string
	Body      string
	BookingID *types.ID
	Read      bool
	CreatedAt time.Time
}
