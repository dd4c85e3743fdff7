// README: Fleet entities: users, drivers, partners, operators.
package fleet

import (
	"time"

	"github.com/vilamourachauffeurs/dispatch/internal/auth"
	"github.com/vilamourachauffeurs/dispatch/internal/modules/booking"
	"github.com/vilamourachauffeurs/dispatch/internal/types"
)

// User is an authenticated account. Partner and operator accounts point at
// their company entity through RelatedID; a driver's user ID is the driver ID.
type User struct {
	ID        types.ID
	Email     string
	Name      string
	Role      auth.Role
	RelatedID *types.ID
	CreatedAt time.Time
}

type Driver struct {
	ID             types.ID
	Name           string
	Phone          string
	VehicleType    booking.VehicleType
	Plate          string
	CommissionRate float64
	Active         bool
	Online         bool // derived from presence, never persisted
	CreatedAt      time.Time
}

type Partner struct {
	ID             types.ID
	Name           string
	Email          string
	Phone          string
	CommissionRate float64
	Active         bool
	CreatedAt      time.Time
}

type Operator struct {
	ID             types.ID
	Name           string
	Email          string
	Phone          string
	CommissionRate float64
	Active         bool
	CreatedAt      time.Time
}
