package types

import "time"

type Role string

const (
	RoleField  Role = "field"
	RoleOffice Role = "office"
)

func ValidRole(r Role) bool {
	return r == RoleField || r == RoleOffice
}

// Profile is the per-user document keyed by the auth provider's subject.
type Profile struct {
	UID       string    `db:"uid"`
	Name      string    `db:"name"`
	Role      Role      `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

// Principal is the authenticated user as resolved for the current session.
type Principal struct {
	UID         string
	Email       string
	DisplayName string
	Role        Role
}
