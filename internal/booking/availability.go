package booking

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vkotelnikov/hotel-booking-backend/internal/room"
)

// Availability answers date-interval availability questions. It only reads;
// all state changes go through the Service.
type Availability struct {
	rooms *room.Service
	store Store
}

func NewAvailability(rooms *room.Service, store Store) *Availability {
	return &Availability{rooms: rooms, store: store}
}

// IsAvailable reports whether the room exists, is flagged available and has
// no approved booking overlapping [in, out). A missing room is simply not
// available; it is not an error.
func (a *Availability) IsAvailable(ctx context.Context, roomID string, in, out time.Time) (bool, error) {
	r, err := a.rooms.Get(ctx, roomID)
	if err != nil {
		if errors.Is(err, room.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if !r.Available {
		return false, nil
	}

	overlapping, err := a.store.Overlapping(ctx, roomID, in, out, []Status{StatusApproved})
	if err != nil {
		return false, err
	}
	return len(overlapping) == 0, nil
}

// AvailableRooms returns the rooms flagged available that have no approved
// overlap with [in, out), in registry insertion order.
func (a *Availability) AvailableRooms(ctx context.Context, in, out time.Time) ([]*room.Room, error) {
	candidates, err := a.rooms.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}

	var free []*room.Room
	for _, r := range candidates {
		overlapping, err := a.store.Overlapping(ctx, r.ID, in, out, []Status{StatusApproved})
		if err != nil {
			return nil, err
		}
		if len(overlapping) == 0 {
			free = append(free, r)
		}
	}
	return free, nil
}

// TotalPrice quotes the stay: nightly price times whole nights.
func (a *Availability) TotalPrice(ctx context.Context, roomID string, in, out time.Time) (decimal.Decimal, error) {
	r, err := a.rooms.Get(ctx, roomID)
	if err != nil {
		if errors.Is(err, room.ErrNotFound) {
			return decimal.Zero, ErrRoomNotFound
		}
		return decimal.Zero, err
	}
	if err := validateDateRange(in, out); err != nil {
		return decimal.Zero, err
	}
	return PriceFor(r.PricePerNight, in, out), nil
}

// PriceFor computes nightly rate times the nights in [in, out).
func PriceFor(nightly decimal.Decimal, in, out time.Time) decimal.Decimal {
	return nightly.Mul(decimal.NewFromInt(int64(Nights(in, out))))
}

// validateDateRange enforces the interval shape: check-in strictly before
// check-out and the stay no longer than MaxStayNights.
func validateDateRange(in, out time.Time) error {
	if !in.Before(out) {
		return ErrCheckInNotBefore
	}
	if Nights(in, out) > MaxStayNights {
		return ErrStayTooLong
	}
	return nil
}
