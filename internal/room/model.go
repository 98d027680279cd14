package room

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vkotelnikov/hotel-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound        = apperror.New(apperror.KindNotFound, "room not found")
	ErrDuplicateNumber = apperror.New(apperror.KindConstraintViolation, "room number already exists")
	ErrInvalidNumber   = apperror.New(apperror.KindInvalidInput, "room number cannot be empty")
	ErrInvalidCapacity = apperror.New(apperror.KindInvalidInput, "room capacity must be at least 1")
	ErrNegativePrice   = apperror.New(apperror.KindInvalidInput, "price per night cannot be negative")
)

// Room represents a bookable hotel room.
type Room struct {
	ID            string // UUID
	Number        string // unique human-facing room number, e.g. "101"
	Type          string // free-form type tag, e.g. "standard", "suite"
	Capacity      int
	PricePerNight decimal.Decimal
	Available     bool
	CreatedAt     time.Time
}

// Validate checks the registry-level field constraints.
func (r *Room) Validate() error {
	if strings.TrimSpace(r.Number) == "" {
		return ErrInvalidNumber
	}
	if r.Capacity < 1 {
		return ErrInvalidCapacity
	}
	if r.PricePerNight.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}
