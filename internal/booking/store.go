package booking

import (
	"context"
	"time"
)

// Store is the persistent, transactional set of bookings. All lifecycle
// checks and their mutations must run inside a single InTx call so the
// overlap reads and the writes commit atomically.
type Store interface {
	// InTx runs fn inside a serializable transaction and passes it a Store
	// bound to that transaction. A nested call reuses the open transaction.
	InTx(ctx context.Context, fn func(Store) error) error

	Create(ctx context.Context, b *Booking) error
	Update(ctx context.Context, b *Booking) error

	GetByID(ctx context.Context, id string) (*Booking, error)
	ListAll(ctx context.Context) ([]*Booking, error)
	ListByUser(ctx context.Context, userID string) ([]*Booking, error)
	ListByRoom(ctx context.Context, roomID string) ([]*Booking, error)
	ListByStatus(ctx context.Context, status Status) ([]*Booking, error)
	ListByStatusInRange(ctx context.Context, status Status, from, to time.Time) ([]*Booking, error)
	ListByGuestEmail(ctx context.Context, email string) ([]*Booking, error)
	// ListByAnyEmail matches the guest email or the owning user's account email.
	ListByAnyEmail(ctx context.Context, email string) ([]*Booking, error)
	ListCreatedSince(ctx context.Context, since time.Time) ([]*Booking, error)

	// Overlapping returns bookings of the room whose half-open interval
	// intersects [in, out) and whose status is in the given set, oldest first.
	Overlapping(ctx context.Context, roomID string, in, out time.Time, statuses []Status) ([]*Booking, error)

	HasActiveForRoom(ctx context.Context, roomID string) (bool, error)
	HasActiveForUser(ctx context.Context, userID string) (bool, error)
	// HasActiveOnOrAfter reports whether the room has an active booking whose
	// check-out falls on or after the given civil date.
	HasActiveOnOrAfter(ctx context.Context, roomID string, day time.Time) (bool, error)

	// MarkReminder records that a check-in reminder was emitted for the
	// booking on the given civil date. It returns false when the reminder
	// was already recorded, making emission idempotent per (booking, date).
	MarkReminder(ctx context.Context, bookingID string, day time.Time) (bool, error)
}
