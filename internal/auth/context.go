// README: Caller identity and role, resolved once per request and passed explicitly.
package auth

import "github.com/vilamourachauffeurs/dispatch/internal/types"

type Role string

const (
	RoleAdmin    Role = "admin"
	RolePartner  Role = "partner"
	RoleOperator Role = "operator"
	RoleDriver   Role = "driver"
)

// ParseRole maps a stored role string onto a known Role.
func ParseRole(v string) (Role, bool) {
	switch Role(v) {
	case RoleAdmin, RolePartner, RoleOperator, RoleDriver:
		return Role(v), true
	}
	return "", false
}

// Context identifies the acting user for a single operation. RelatedID is the
// partner or operator company the user belongs to; empty for admins and drivers.
type Context struct {
	UserID    types.ID
	Role      Role
	RelatedID types.ID
}

func (c Context) IsAdmin() bool {
	return c.Role == RoleAdmin
}
