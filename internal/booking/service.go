package booking

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/vkotelnikov/hotel-booking-backend/internal/clock"
	"github.com/vkotelnikov/hotel-booking-backend/internal/pkg/apperror"
	"github.com/vkotelnikov/hotel-booking-backend/internal/room"
	"github.com/vkotelnikov/hotel-booking-backend/internal/user"
)

// emailPattern is the minimal local@domain shape; full address validation is
// not the booking core's job.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)

// Config tunes service behaviour.
type Config struct {
	// StrictOverlap makes pending bookings block creation too, instead of
	// being resolved later by auto-reject and approval.
	StrictOverlap bool
}

// Service orchestrates the booking lifecycle. Every lifecycle operation runs
// its checks and writes in one serializable store transaction.
type Service struct {
	store         Store
	rooms         *room.Service
	users         *user.Service
	avail         *Availability
	clock         clock.Clock
	emitter       Emitter
	log           *logrus.Logger
	strictOverlap bool
}

func NewService(
	store Store,
	rooms *room.Service,
	users *user.Service,
	avail *Availability,
	clk clock.Clock,
	emitter Emitter,
	log *logrus.Logger,
	cfg Config,
) *Service {
	return &Service{
		store:         store,
		rooms:         rooms,
		users:         users,
		avail:         avail,
		clock:         clk,
		emitter:       emitter,
		log:           log,
		strictOverlap: cfg.StrictOverlap,
	}
}

// CreateRequest carries the inputs of Create.
type CreateRequest struct {
	RoomID          string
	UserID          string // owner; defaults to the actor
	CheckIn         time.Time
	CheckOut        time.Time
	GuestName       string
	GuestEmail      string
	SpecialRequests string
}

// UpdateRequest carries the inputs of Update (moderator surface).
type UpdateRequest struct {
	CheckIn         time.Time
	CheckOut        time.Time
	GuestName       string
	GuestEmail      string
	SpecialRequests string
}

// Create inserts a new PENDING booking and, in the same transaction,
// auto-rejects every other pending booking of the room that overlaps it.
func (s *Service) Create(ctx context.Context, actor Actor, req CreateRequest) (*Booking, error) {
	if req.UserID == "" {
		req.UserID = actor.UserID
	}
	if req.UserID != actor.UserID && !actor.Role.CanModerate() {
		return nil, ErrCreateForOther
	}
	if err := validateGuestFields(req.GuestName, req.GuestEmail); err != nil {
		return nil, err
	}

	in, out := clock.Midnight(req.CheckIn), clock.Midnight(req.CheckOut)
	if err := s.validateStayDates(in, out); err != nil {
		return nil, err
	}

	var (
		created *Booking
		events  []Event
	)
	err := s.store.InTx(ctx, func(tx Store) error {
		r, err := s.getRoom(ctx, req.RoomID)
		if err != nil {
			return err
		}
		if !r.Available {
			return ErrRoomUnavailable
		}
		if _, err := s.users.GetByID(ctx, req.UserID); err != nil {
			if errors.Is(err, user.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if err := s.checkNoBlockingOverlap(ctx, tx, req.RoomID, in, out, ""); err != nil {
			return err
		}

		now := s.clock.Now()
		b := &Booking{
			ID:              uuid.NewString(),
			RoomID:          req.RoomID,
			UserID:          req.UserID,
			CheckIn:         in,
			CheckOut:        out,
			GuestName:       strings.TrimSpace(req.GuestName),
			GuestEmail:      req.GuestEmail,
			SpecialRequests: req.SpecialRequests,
			Status:          StatusPending,
			CreatedAt:       now,
			TotalPrice:      PriceFor(r.PricePerNight, in, out),
		}
		if err := tx.Create(ctx, b); err != nil {
			return err
		}
		events = append(events, statusEvent(b, "", now, ""))

		rejected, err := s.autoRejectLosers(ctx, tx, b.ID, b.RoomID, in, out, now)
		if err != nil {
			return err
		}
		events = append(events, rejected...)

		created = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAll(ctx, events)
	s.log.WithFields(logrus.Fields{
		"booking_id": created.ID,
		"room_id":    created.RoomID,
		"user_id":    created.UserID,
		"total":      created.TotalPrice.StringFixed(2),
	}).Info("booking created")
	return created, nil
}

// Approve transitions a pending booking to APPROVED and auto-rejects
// overlapping pending competitors in the same transaction.
func (s *Service) Approve(ctx context.Context, actor Actor, id string) (*Booking, error) {
	if !actor.Role.CanModerate() {
		return nil, ErrModeratorOnly
	}

	var (
		approved *Booking
		events   []Event
	)
	err := s.store.InTx(ctx, func(tx Store) error {
		b, err := tx.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if b.Status != StatusPending {
			return invalidTransition(b.Status, StatusApproved)
		}

		others, err := tx.Overlapping(ctx, b.RoomID, b.CheckIn, b.CheckOut, []Status{StatusApproved})
		if err != nil {
			return err
		}
		for _, other := range others {
			if other.ID != b.ID {
				return ErrApprovedOverlap
			}
		}

		now := s.clock.Now()
		from := b.Status
		b.Status = StatusApproved
		if err := tx.Update(ctx, b); err != nil {
			return err
		}
		events = append(events, statusEvent(b, from, now, ""))

		rejected, err := s.autoRejectLosers(ctx, tx, b.ID, b.RoomID, b.CheckIn, b.CheckOut, now)
		if err != nil {
			return err
		}
		events = append(events, rejected...)

		approved = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAll(ctx, events)
	s.log.WithField("booking_id", approved.ID).Info("booking approved")
	return approved, nil
}

// Reject transitions an active booking to REJECTED.
func (s *Service) Reject(ctx context.Context, actor Actor, id string) (*Booking, error) {
	if !actor.Role.CanModerate() {
		return nil, ErrModeratorOnly
	}

	var (
		rejected *Booking
		events   []Event
	)
	err := s.store.InTx(ctx, func(tx Store) error {
		b, err := tx.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !b.Status.Active() {
			return invalidTransition(b.Status, StatusRejected)
		}

		now := s.clock.Now()
		from := b.Status
		b.Status = StatusRejected
		if err := tx.Update(ctx, b); err != nil {
			return err
		}
		events = append(events, statusEvent(b, from, now, ""))
		rejected = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAll(ctx, events)
	s.log.WithField("booking_id", rejected.ID).Info("booking rejected")
	return rejected, nil
}

// Cancel lets the owning user cancel an active booking more than one day
// before check-in.
func (s *Service) Cancel(ctx context.Context, actor Actor, id string) (*Booking, error) {
	var (
		cancelled *Booking
		events    []Event
	)
	err := s.store.InTx(ctx, func(tx Store) error {
		b, err := tx.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if b.UserID != actor.UserID {
			return ErrNotOwner
		}
		if !b.Status.Active() {
			return invalidTransition(b.Status, StatusCancelled)
		}
		if !b.CheckIn.After(s.clock.Today().AddDate(0, 0, 1)) {
			return ErrNotCancellable
		}

		now := s.clock.Now()
		from := b.Status
		b.Status = StatusCancelled
		if err := tx.Update(ctx, b); err != nil {
			return err
		}
		events = append(events, statusEvent(b, from, now, ""))
		cancelled = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAll(ctx, events)
	s.log.WithField("booking_id", cancelled.ID).Info("booking cancelled")
	return cancelled, nil
}

// Update edits a pending booking. When the dates change, the full creation
// validation is re-run and the total price is recomputed at the nightly rate
// the booking was created with.
func (s *Service) Update(ctx context.Context, actor Actor, id string, req UpdateRequest) (*Booking, error) {
	if !actor.Role.CanModerate() {
		return nil, ErrModeratorOnly
	}
	if err := validateGuestFields(req.GuestName, req.GuestEmail); err != nil {
		return nil, err
	}

	in, out := clock.Midnight(req.CheckIn), clock.Midnight(req.CheckOut)

	var updated *Booking
	err := s.store.InTx(ctx, func(tx Store) error {
		b, err := tx.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if b.Status != StatusPending {
			return ErrNotEditable
		}

		if !in.Equal(b.CheckIn) || !out.Equal(b.CheckOut) {
			if err := s.validateStayDates(in, out); err != nil {
				return err
			}
			if err := s.checkNoBlockingOverlap(ctx, tx, b.RoomID, in, out, b.ID); err != nil {
				return err
			}

			nightly := b.TotalPrice.Div(decimal.NewFromInt(int64(b.Nights())))
			b.CheckIn = in
			b.CheckOut = out
			b.TotalPrice = PriceFor(nightly, in, out)
		}

		b.GuestName = strings.TrimSpace(req.GuestName)
		b.GuestEmail = req.GuestEmail
		b.SpecialRequests = req.SpecialRequests

		if err := tx.Update(ctx, b); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("booking_id", updated.ID).Info("booking updated")
	return updated, nil
}

// Get returns a booking visible to the actor: its owner or a moderator.
func (s *Service) Get(ctx context.Context, actor Actor, id string) (*Booking, error) {
	b, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID != actor.UserID && !actor.Role.CanModerate() {
		return nil, ErrNotOwner
	}
	return b, nil
}

// ListForUser returns a user's bookings. Non-moderators can only list their own.
func (s *Service) ListForUser(ctx context.Context, actor Actor, userID string) ([]*Booking, error) {
	if userID == "" {
		userID = actor.UserID
	}
	if userID != actor.UserID && !actor.Role.CanModerate() {
		return nil, ErrNotOwner
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.store.ListByUser(ctx, userID)
}

func (s *Service) ListPending(ctx context.Context, actor Actor) ([]*Booking, error) {
	return s.listByStatus(ctx, actor, StatusPending)
}

func (s *Service) ListApproved(ctx context.Context, actor Actor) ([]*Booking, error) {
	return s.listByStatus(ctx, actor, StatusApproved)
}

func (s *Service) listByStatus(ctx context.Context, actor Actor, status Status) ([]*Booking, error) {
	if !actor.Role.CanModerate() {
		return nil, ErrModeratorOnly
	}
	return s.store.ListByStatus(ctx, status)
}

func (s *Service) ListAll(ctx context.Context, actor Actor) ([]*Booking, error) {
	if !actor.Role.CanModerate() {
		return nil, ErrModeratorOnly
	}
	return s.store.ListAll(ctx)
}

func (s *Service) ListByRoom(ctx context.Context, actor Actor, roomID string) ([]*Booking, error) {
	if !actor.Role.CanModerate() {
		return nil, ErrModeratorOnly
	}
	return s.store.ListByRoom(ctx, roomID)
}

// ListByGuestEmail matches the guest email exactly (case-sensitive).
func (s *Service) ListByGuestEmail(ctx context.Context, actor Actor, email string) ([]*Booking, error) {
	if !actor.Role.CanModerate() {
		return nil, ErrModeratorOnly
	}
	return s.store.ListByGuestEmail(ctx, email)
}

// ListByAnyEmail matches the guest email or the owning user's account email.
func (s *Service) ListByAnyEmail(ctx context.Context, actor Actor, email string) ([]*Booking, error) {
	if !actor.Role.CanModerate() {
		return nil, ErrModeratorOnly
	}
	return s.store.ListByAnyEmail(ctx, email)
}

// ListByStatusInRange returns bookings of a status whose stay falls inside
// [from, to].
func (s *Service) ListByStatusInRange(ctx context.Context, actor Actor, status Status, from, to time.Time) ([]*Booking, error) {
	if !actor.Role.CanModerate() {
		return nil, ErrModeratorOnly
	}
	return s.store.ListByStatusInRange(ctx, status, clock.Midnight(from), clock.Midnight(to))
}

// Stats summarises bookings per status plus revenue over approved stays.
type Stats struct {
	Total     int
	Pending   int
	Approved  int
	Rejected  int
	Cancelled int
	Completed int
	Revenue   decimal.Decimal
}

func (s *Service) Stats(ctx context.Context, actor Actor) (*Stats, error) {
	if !actor.Role.CanModerate() {
		return nil, ErrModeratorOnly
	}

	bookings, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Total: len(bookings), Revenue: decimal.Zero}
	for _, b := range bookings {
		switch b.Status {
		case StatusPending:
			stats.Pending++
		case StatusApproved:
			stats.Approved++
			stats.Revenue = stats.Revenue.Add(b.TotalPrice)
		case StatusRejected:
			stats.Rejected++
		case StatusCancelled:
			stats.Cancelled++
		case StatusCompleted:
			stats.Completed++
		}
	}
	return stats, nil
}

// DeleteRoom removes a room after checking no active booking references it.
func (s *Service) DeleteRoom(ctx context.Context, actor Actor, roomID string) error {
	if !actor.Role.IsAdmin() {
		return ErrAdminOnly
	}
	active, err := s.store.HasActiveForRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if active {
		return ErrRoomHasActive
	}
	return s.rooms.Delete(ctx, roomID)
}

// DeleteUser removes a user after checking no active booking references them.
func (s *Service) DeleteUser(ctx context.Context, actor Actor, userID string) error {
	if !actor.Role.IsAdmin() {
		return ErrAdminOnly
	}
	active, err := s.store.HasActiveForUser(ctx, userID)
	if err != nil {
		return err
	}
	if active {
		return ErrUserHasActive
	}
	return s.users.Delete(ctx, userID)
}

// IsAvailable, AvailableRooms and Quote expose the availability engine.

func (s *Service) IsAvailable(ctx context.Context, roomID string, in, out time.Time) (bool, error) {
	return s.avail.IsAvailable(ctx, roomID, clock.Midnight(in), clock.Midnight(out))
}

func (s *Service) AvailableRooms(ctx context.Context, in, out time.Time) ([]*room.Room, error) {
	return s.avail.AvailableRooms(ctx, clock.Midnight(in), clock.Midnight(out))
}

func (s *Service) Quote(ctx context.Context, roomID string, in, out time.Time) (decimal.Decimal, error) {
	return s.avail.TotalPrice(ctx, roomID, clock.Midnight(in), clock.Midnight(out))
}

// autoRejectLosers rejects every other pending booking of the room that
// overlaps [in, out), appending the machine note citing the winner. Any
// failed write aborts the surrounding transaction.
func (s *Service) autoRejectLosers(ctx context.Context, tx Store, winnerID, roomID string, in, out time.Time, now time.Time) ([]Event, error) {
	losers, err := tx.Overlapping(ctx, roomID, in, out, []Status{StatusPending})
	if err != nil {
		return nil, err
	}

	var events []Event
	for _, loser := range losers {
		if loser.ID == winnerID {
			continue
		}
		from := loser.Status
		note := AutoRejectNote(now, winnerID)
		loser.Status = StatusRejected
		AppendNote(loser, note)
		if err := tx.Update(ctx, loser); err != nil {
			return nil, err
		}
		events = append(events, statusEvent(loser, from, now, note))
	}
	return events, nil
}

// checkNoBlockingOverlap enforces the create-time availability rule: an
// approved overlap always blocks; pending overlaps block only in strict mode.
func (s *Service) checkNoBlockingOverlap(ctx context.Context, tx Store, roomID string, in, out time.Time, excludeID string) error {
	statuses := []Status{StatusApproved}
	if s.strictOverlap {
		statuses = ActiveStatuses
	}
	overlapping, err := tx.Overlapping(ctx, roomID, in, out, statuses)
	if err != nil {
		return err
	}
	for _, other := range overlapping {
		if other.ID != excludeID {
			return ErrRoomUnavailable
		}
	}
	return nil
}

func (s *Service) getRoom(ctx context.Context, roomID string) (*room.Room, error) {
	r, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		if errors.Is(err, room.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return r, nil
}

// validateStayDates enforces the interval shape plus the creation rule that
// check-in is tomorrow or later.
func (s *Service) validateStayDates(in, out time.Time) error {
	if err := validateDateRange(in, out); err != nil {
		return err
	}
	if in.Before(s.clock.Today().AddDate(0, 0, 1)) {
		return ErrCheckInTooSoon
	}
	return nil
}

func validateGuestFields(name, email string) error {
	if strings.TrimSpace(name) == "" {
		return ErrGuestNameRequired
	}
	if !emailPattern.MatchString(email) {
		return ErrInvalidGuestEmail
	}
	return nil
}

func invalidTransition(from, to Status) error {
	if from.Terminal() {
		return apperror.Newf(apperror.KindInvalidTransition, "booking is already %s", strings.ToLower(string(from)))
	}
	return apperror.Newf(apperror.KindInvalidTransition, "cannot transition booking from %s to %s", from, to)
}

// AutoRejectNote renders the machine note appended to auto-rejected bookings.
func AutoRejectNote(at time.Time, winnerID string) string {
	return fmt.Sprintf("[auto-reject %s] conflict with booking #%s", at.UTC().Format(time.RFC3339), winnerID)
}

// AppendNote appends a machine note to the booking's special requests.
func AppendNote(b *Booking, note string) {
	if b.SpecialRequests == "" {
		b.SpecialRequests = note
		return
	}
	b.SpecialRequests += "\n" + note
}

func statusEvent(b *Booking, from Status, at time.Time, note string) Event {
	return Event{
		Type:      EventStatusChanged,
		BookingID: b.ID,
		RoomID:    b.RoomID,
		From:      from,
		To:        b.Status,
		Note:      note,
		At:        at,
	}
}

func (s *Service) emitAll(ctx context.Context, events []Event) {
	if s.emitter == nil {
		return
	}
	for _, ev := range events {
		s.emitter.Emit(ctx, ev)
	}
}
