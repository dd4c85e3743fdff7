// README: Row-level visibility policy expressed as a query predicate.
package booking

import (
	"github.com/vilamourachauffeurs/dispatch/internal/auth"
	"github.com/vilamourachauffeurs/dispatch/internal/types"
)

// Filter restricts a booking query to the rows the caller may see.
// Field is one of the fixed column names below; an empty Field means no
// restriction (admin). The filter is applied in SQL, never by fetching the
// full collection and filtering in process.
type Filter struct {
	Field string
	Value types.ID
}

const (
	filterPartner   = "partner_id"
	filterOperator  = "operator_id"
	filterDriver    = "driver_id"
	filterCreatedBy = "created_by"
)

// VisibilityFilter maps a caller onto its row predicate:
//
//	admin     all bookings
//	partner   partner_id = relatedID
//	operator  operator_id = relatedID
//	driver    driver_id = userID (driver ID equals user ID)
//	fallback  created_by = userID (no related entity resolved yet)
func VisibilityFilter(actor auth.Context) Filter {
	switch actor.Role {
	case auth.RoleAdmin:
		return Filter{}
	case auth.RolePartner:
		if actor.RelatedID != "" {
			return Filter{Field: filterPartner, Value: actor.RelatedID}
		}
	case auth.RoleOperator:
		if actor.RelatedID != "" {
			return Filter{Field: filterOperator, Value: actor.RelatedID}
		}
	case auth.RoleDriver:
		return Filter{Field: filterDriver, Value: actor.UserID}
	}
	return Filter{Field: filterCreatedBy, Value: actor.UserID}
}

// Matches reports whether b satisfies the predicate. Used for single-document
// visibility checks; list queries push the same predicate into SQL.
func (f Filter) Matches(b *Booking) bool {
	switch f.Field {
	case "":
		return true
	case filterPartner:
		return b.PartnerID != nil && *b.PartnerID == f.Value
	case filterOperator:
		return b.OperatorID != nil && *b.OperatorID == f.Value
	case filterDriver:
		return b.DriverID != nil && *b.DriverID == f.Value
	case filterCreatedBy:
		return b.CreatedBy == f.Value
	}
	return false
}
