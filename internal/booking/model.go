package booking

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vkotelnikov/hotel-booking-backend/internal/pkg/apperror"
	"github.com/vkotelnikov/hotel-booking-backend/internal/user"
)

// MaxStayNights is the longest allowed stay.
const MaxStayNights = 30

var (
	ErrNotFound        = apperror.New(apperror.KindNotFound, "booking not found")
	ErrRoomNotFound    = apperror.New(apperror.KindNotFound, "room not found")
	ErrUserNotFound    = apperror.New(apperror.KindNotFound, "user not found")
	ErrRoomUnavailable = apperror.New(apperror.KindRoomUnavailable, "room is not available for the selected dates")
	ErrApprovedOverlap = apperror.New(apperror.KindConflict, "room already has an approved booking for these dates")
	ErrNotOwner        = apperror.New(apperror.KindForbidden, "booking belongs to another user")
	ErrModeratorOnly   = apperror.New(apperror.KindForbidden, "moderator role required")
	ErrAdminOnly       = apperror.New(apperror.KindForbidden, "admin role required")
	ErrNotCancellable  = apperror.New(apperror.KindNotCancellable, "bookings can only be cancelled more than one day before check-in")
	ErrNotEditable     = apperror.New(apperror.KindInvalidTransition, "only pending bookings can be edited")
	ErrCreateForOther  = apperror.New(apperror.KindForbidden, "cannot create a booking for another user")
	ErrRoomHasActive   = apperror.New(apperror.KindConstraintViolation, "room has active bookings")
	ErrUserHasActive   = apperror.New(apperror.KindConstraintViolation, "user has active bookings")

	ErrGuestNameRequired = apperror.New(apperror.KindInvalidInput, "guest name is required")
	ErrInvalidGuestEmail = apperror.New(apperror.KindInvalidInput, "guest email is invalid")
	ErrCheckInNotBefore  = apperror.New(apperror.KindInvalidInput, "check-in must be before check-out")
	ErrStayTooLong       = apperror.New(apperror.KindInvalidInput, "stay cannot exceed 30 nights")
	ErrCheckInTooSoon    = apperror.New(apperror.KindInvalidInput, "check-in must be tomorrow or later")
)

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// Active reports whether the booking still competes for its room.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusApproved
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusCancelled || s == StatusCompleted
}

// ActiveStatuses are the statuses that occupy a room.
var ActiveStatuses = []Status{StatusPending, StatusApproved}

// Booking represents a reservation of one room over a half-open civil date
// interval [CheckIn, CheckOut). Room and user are referenced by id only.
type Booking struct {
	ID              string // UUID
	RoomID          string
	UserID          string // owning user
	CheckIn         time.Time // civil date, midnight UTC
	CheckOut        time.Time // civil date, midnight UTC
	GuestName       string
	GuestEmail      string
	SpecialRequests string
	Status          Status
	CreatedAt       time.Time
	TotalPrice      decimal.Decimal
}

// Nights returns the length of the stay in whole nights.
func (b *Booking) Nights() int {
	return Nights(b.CheckIn, b.CheckOut)
}

// Overlaps reports whether the booking's interval intersects [in, out).
// Touching intervals do not overlap.
func (b *Booking) Overlaps(in, out time.Time) bool {
	return Overlap(b.CheckIn, b.CheckOut, in, out)
}

// Overlap implements the half-open interval rule:
// [aIn, aOut) and [bIn, bOut) overlap iff aIn < bOut and aOut > bIn.
func Overlap(aIn, aOut, bIn, bOut time.Time) bool {
	return aIn.Before(bOut) && aOut.After(bIn)
}

// Nights returns the number of whole nights between two civil dates.
func Nights(in, out time.Time) int {
	return int(out.Sub(in).Hours() / 24)
}

// Actor identifies the caller of a service operation. The HTTP surface only
// supplies it; all role gates live in the service.
type Actor struct {
	UserID string
	Role   user.Role
}
