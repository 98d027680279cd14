// Package reconciler hosts the periodic jobs that keep the booking set
// consistent: conflict sweeping, completion of past stays, expiry of stale
// pending requests, check-in reminders and the room availability rollup.
package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vkotelnikov/hotel-booking-backend/internal/booking"
	"github.com/vkotelnikov/hotel-booking-backend/internal/clock"
	"github.com/vkotelnikov/hotel-booking-backend/internal/pkg/apperror"
	"github.com/vkotelnikov/hotel-booking-backend/internal/room"
)

// pendingTTL is how long a pending booking may wait for a decision.
const pendingTTL = 24 * time.Hour

// Reconciler drives the background jobs. Each job processes one booking per
// transaction, so a crashed run can safely be re-executed: terminal statuses
// absorb repeats and reminders are keyed by (booking, date).
type Reconciler struct {
	store   booking.Store
	rooms   *room.Service
	clock   clock.Clock
	emitter booking.Emitter
	log     *logrus.Logger
}

func New(store booking.Store, rooms *room.Service, clk clock.Clock, emitter booking.Emitter, log *logrus.Logger) *Reconciler {
	return &Reconciler{
		store:   store,
		rooms:   rooms,
		clock:   clk,
		emitter: emitter,
		log:     log,
	}
}

// SweepConflicts rejects every pending booking beaten by an approved booking
// or by an earlier-created pending booking of the same room. It returns the
// number of bookings rejected.
func (r *Reconciler) SweepConflicts(ctx context.Context) (int, error) {
	pendings, err := r.store.ListByStatus(ctx, booking.StatusPending)
	if err != nil {
		return 0, err
	}

	rejected := 0
	for _, p := range pendings {
		didReject, err := r.perBooking(ctx, p.ID, func() (bool, error) {
			return r.sweepOne(ctx, p.ID)
		})
		if err != nil {
			continue
		}
		if didReject {
			rejected++
		}
	}
	if rejected > 0 {
		r.log.WithField("rejected", rejected).Info("conflict sweep rejected losing bookings")
	}
	return rejected, nil
}

func (r *Reconciler) sweepOne(ctx context.Context, id string) (bool, error) {
	var event *booking.Event
	err := r.store.InTx(ctx, func(tx booking.Store) error {
		b, err := tx.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if b.Status != booking.StatusPending {
			// Already decided by a concurrent operation.
			return nil
		}

		winner, err := r.findWinner(ctx, tx, b)
		if err != nil || winner == nil {
			return err
		}

		now := r.clock.Now()
		note := booking.AutoRejectNote(now, winner.ID)
		from := b.Status
		b.Status = booking.StatusRejected
		booking.AppendNote(b, note)
		if err := tx.Update(ctx, b); err != nil {
			return err
		}
		event = &booking.Event{
			Type:      booking.EventStatusChanged,
			BookingID: b.ID,
			RoomID:    b.RoomID,
			From:      from,
			To:        b.Status,
			Note:      note,
			At:        now,
		}
		return nil
	})
	if err != nil || event == nil {
		return false, err
	}
	r.emit(ctx, *event)
	return true, nil
}

// findWinner returns the booking that beats b: any approved overlap, or the
// earliest-created overlapping pending of the same room that is older than b.
func (r *Reconciler) findWinner(ctx context.Context, tx booking.Store, b *booking.Booking) (*booking.Booking, error) {
	approved, err := tx.Overlapping(ctx, b.RoomID, b.CheckIn, b.CheckOut, []booking.Status{booking.StatusApproved})
	if err != nil {
		return nil, err
	}
	for _, a := range approved {
		if a.ID != b.ID {
			return a, nil
		}
	}

	pendings, err := tx.Overlapping(ctx, b.RoomID, b.CheckIn, b.CheckOut, []booking.Status{booking.StatusPending})
	if err != nil {
		return nil, err
	}
	for _, p := range pendings { // ordered oldest first
		if p.ID != b.ID && p.CreatedAt.Before(b.CreatedAt) {
			return p, nil
		}
	}
	return nil, nil
}

// CompletePastStays marks approved bookings whose check-out has passed as
// COMPLETED and returns how many it completed.
func (r *Reconciler) CompletePastStays(ctx context.Context) (int, error) {
	approved, err := r.store.ListByStatus(ctx, booking.StatusApproved)
	if err != nil {
		return 0, err
	}

	today := r.clock.Today()
	completed := 0
	for _, b := range approved {
		if !b.CheckOut.Before(today) {
			continue
		}
		done, err := r.perBooking(ctx, b.ID, func() (bool, error) {
			return r.transition(ctx, b.ID, booking.StatusApproved, booking.StatusCompleted, "")
		})
		if err != nil {
			continue
		}
		if done {
			completed++
		}
	}
	if completed > 0 {
		r.log.WithField("completed", completed).Info("completed past stays")
	}
	return completed, nil
}

// ExpirePending cancels pending bookings older than 24 hours and returns how
// many it cancelled.
func (r *Reconciler) ExpirePending(ctx context.Context) (int, error) {
	pendings, err := r.store.ListByStatus(ctx, booking.StatusPending)
	if err != nil {
		return 0, err
	}

	cutoff := r.clock.Now().Add(-pendingTTL)
	expired := 0
	for _, b := range pendings {
		if !b.CreatedAt.Before(cutoff) {
			continue
		}
		note := fmt.Sprintf("[auto-cancel %s] pending expired", r.clock.Now().UTC().Format(time.RFC3339))
		done, err := r.perBooking(ctx, b.ID, func() (bool, error) {
			return r.transition(ctx, b.ID, booking.StatusPending, booking.StatusCancelled, note)
		})
		if err != nil {
			continue
		}
		if done {
			expired++
		}
	}
	if expired > 0 {
		r.log.WithField("expired", expired).Info("expired stale pending bookings")
	}
	return expired, nil
}

// transition moves a booking from one expected status to another inside its
// own transaction. It reports false when the booking no longer holds the
// expected status (a repeat run, or a concurrent decision).
func (r *Reconciler) transition(ctx context.Context, id string, from, to booking.Status, note string) (bool, error) {
	var event *booking.Event
	err := r.store.InTx(ctx, func(tx booking.Store) error {
		b, err := tx.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if b.Status != from {
			return nil
		}
		b.Status = to
		if note != "" {
			booking.AppendNote(b, note)
		}
		if err := tx.Update(ctx, b); err != nil {
			return err
		}
		event = &booking.Event{
			Type:      booking.EventStatusChanged,
			BookingID: b.ID,
			RoomID:    b.RoomID,
			From:      from,
			To:        to,
			Note:      note,
			At:        r.clock.Now(),
		}
		return nil
	})
	if err != nil || event == nil {
		return false, err
	}
	r.emit(ctx, *event)
	return true, nil
}

// SendCheckInReminders emits one reminder per approved booking checking in
// tomorrow. Emission is idempotent per (booking, date): a repeated run on the
// same day emits nothing.
func (r *Reconciler) SendCheckInReminders(ctx context.Context) (int, error) {
	approved, err := r.store.ListByStatus(ctx, booking.StatusApproved)
	if err != nil {
		return 0, err
	}

	today := r.clock.Today()
	tomorrow := today.AddDate(0, 0, 1)
	sent := 0
	for _, b := range approved {
		if !b.CheckIn.Equal(tomorrow) {
			continue
		}
		did, err := r.perBooking(ctx, b.ID, func() (bool, error) {
			return r.remindOne(ctx, b, today)
		})
		if err != nil {
			continue
		}
		if did {
			sent++
		}
	}
	if sent > 0 {
		r.log.WithField("reminders", sent).Info("sent check-in reminders")
	}
	return sent, nil
}

func (r *Reconciler) remindOne(ctx context.Context, b *booking.Booking, day time.Time) (bool, error) {
	var fresh bool
	err := r.store.InTx(ctx, func(tx booking.Store) error {
		var err error
		fresh, err = tx.MarkReminder(ctx, b.ID, day)
		return err
	})
	if err != nil || !fresh {
		return false, err
	}
	r.emit(ctx, booking.Event{
		Type:      booking.EventCheckInReminder,
		BookingID: b.ID,
		RoomID:    b.RoomID,
		At:        r.clock.Now(),
	})
	return true, nil
}

// RollupRoomAvailability clears the available flag of rooms that have an
// active booking checking out today or later. It only ever clears the flag,
// so an admin-set unavailable room is never flipped back.
func (r *Reconciler) RollupRoomAvailability(ctx context.Context) (int, error) {
	rooms, err := r.rooms.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	today := r.clock.Today()
	updated := 0
	for _, rm := range rooms {
		if !rm.Available {
			continue
		}
		occupied, err := r.store.HasActiveOnOrAfter(ctx, rm.ID, today)
		if err != nil {
			r.log.WithError(err).WithField("room_id", rm.ID).Warn("availability rollup failed for room")
			continue
		}
		if !occupied {
			continue
		}
		if err := r.rooms.MarkUnavailable(ctx, rm.ID); err != nil {
			r.log.WithError(err).WithField("room_id", rm.ID).Warn("availability rollup failed for room")
			continue
		}
		updated++
	}
	if updated > 0 {
		r.log.WithField("rooms", updated).Info("availability rollup cleared room flags")
	}
	return updated, nil
}

// WeeklyReport logs booking counts for the trailing seven days.
func (r *Reconciler) WeeklyReport(ctx context.Context) error {
	since := r.clock.Today().AddDate(0, 0, -7)
	recent, err := r.store.ListCreatedSince(ctx, since)
	if err != nil {
		return err
	}

	counts := map[booking.Status]int{}
	for _, b := range recent {
		counts[b.Status]++
	}
	r.log.WithFields(logrus.Fields{
		"since":     since.Format("2006-01-02"),
		"total":     len(recent),
		"pending":   counts[booking.StatusPending],
		"approved":  counts[booking.StatusApproved],
		"rejected":  counts[booking.StatusRejected],
		"cancelled": counts[booking.StatusCancelled],
		"completed": counts[booking.StatusCompleted],
	}).Info("weekly booking report")
	return nil
}

// perBooking runs one booking's work, retrying once on a store failure and
// logging (not propagating) the error so one bad booking cannot stop a job.
func (r *Reconciler) perBooking(ctx context.Context, id string, fn func() (bool, error)) (bool, error) {
	did, err := fn()
	if err != nil && apperror.IsKind(err, apperror.KindStoreFailure) {
		r.log.WithError(err).WithField("booking_id", id).Warn("store failure, retrying once")
		did, err = fn()
	}
	if err != nil {
		r.log.WithError(err).WithField("booking_id", id).Warn("reconciler skipped booking")
		return false, err
	}
	return did, nil
}

func (r *Reconciler) emit(ctx context.Context, ev booking.Event) {
	if r.emitter != nil {
		r.emitter.Emit(ctx, ev)
	}
}
