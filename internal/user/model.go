package user

import (
	"time"

	"github.com/vkotelnikov/hotel-booking-backend/internal/pkg/apperror"
)

var ErrNotFound = apperror.New(apperror.KindNotFound, "user not found")

// Role determines which booking operations a user may perform.
type Role string

const (
	RoleUser      Role = "USER"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
)

// CanModerate reports whether the role may approve, reject or edit bookings.
func (r Role) CanModerate() bool {
	return r == RoleModerator || r == RoleAdmin
}

// IsAdmin reports whether the role may manage rooms and users.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleModerator || r == RoleAdmin
}

// User represents a registered account. Authentication lives outside this
// service; the booking core only needs identity, email and role.
type User struct {
	ID        string // UUID
	Username  string
	Email     string
	Role      Role
	CreatedAt time.Time
}
