package reconciler_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkotelnikov/hotel-booking-backend/internal/booking"
	"github.com/vkotelnikov/hotel-booking-backend/internal/booking/memory"
	"github.com/vkotelnikov/hotel-booking-backend/internal/clock"
	"github.com/vkotelnikov/hotel-booking-backend/internal/reconciler"
	"github.com/vkotelnikov/hotel-booking-backend/internal/room"
)

type recorder struct {
	mu     sync.Mutex
	events []booking.Event
}

func (r *recorder) Emit(_ context.Context, ev booking.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) all() []booking.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]booking.Event(nil), r.events...)
}

type env struct {
	store   *memory.Store
	rooms   *memory.Rooms
	roomSvc *room.Service
	clock   *clock.Fake
	events  *recorder
	rec     *reconciler.Reconciler
	logHook *logrustest.Hook
}

var baseNow = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func newEnv(t *testing.T) *env {
	t.Helper()

	store := memory.NewStore()
	rooms := memory.NewRooms()
	roomSvc := room.NewService(rooms)
	clk := clock.NewFake(baseNow)
	events := &recorder{}
	log, hook := logrustest.NewNullLogger()

	return &env{
		store:   store,
		rooms:   rooms,
		roomSvc: roomSvc,
		clock:   clk,
		events:  events,
		rec:     reconciler.New(store, roomSvc, clk, events, log),
		logHook: hook,
	}
}

func (e *env) addRoom(t *testing.T, number string) *room.Room {
	t.Helper()
	r := &room.Room{
		Number:        number,
		Capacity:      2,
		PricePerNight: decimal.RequireFromString("100.00"),
		Available:     true,
	}
	require.NoError(t, e.roomSvc.Save(context.Background(), r))
	return r
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// seed inserts a booking directly, bypassing service validation.
func (e *env) seed(t *testing.T, roomID string, status booking.Status, in, out, createdAt time.Time) *booking.Booking {
	t.Helper()
	b := &booking.Booking{
		ID:         uuid.NewString(),
		RoomID:     roomID,
		UserID:     uuid.NewString(),
		CheckIn:    in,
		CheckOut:   out,
		GuestName:  "Guest",
		GuestEmail: "guest@example.com",
		Status:     status,
		CreatedAt:  createdAt,
		TotalPrice: decimal.RequireFromString("100.00"),
	}
	require.NoError(t, e.store.Create(context.Background(), b))
	return b
}

func (e *env) status(t *testing.T, id string) booking.Status {
	t.Helper()
	b, err := e.store.GetByID(context.Background(), id)
	require.NoError(t, err)
	return b.Status
}

func TestSweepConflicts(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	r := e.addRoom(t, "101")

	t.Run("Approved winner beats overlapping pending", func(t *testing.T) {
		approved := e.seed(t, r.ID, booking.StatusApproved, date(2026, 9, 1), date(2026, 9, 5), baseNow.Add(-2*time.Hour))
		loser := e.seed(t, r.ID, booking.StatusPending, date(2026, 9, 3), date(2026, 9, 6), baseNow.Add(-time.Hour))

		rejected, err := e.rec.SweepConflicts(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, rejected)
		assert.Equal(t, booking.StatusRejected, e.status(t, loser.ID))

		b, err := e.store.GetByID(ctx, loser.ID)
		require.NoError(t, err)
		assert.Contains(t, b.SpecialRequests, "conflict with booking #"+approved.ID)
	})

	t.Run("Earliest created pending wins among pendings", func(t *testing.T) {
		older := e.seed(t, r.ID, booking.StatusPending, date(2026, 10, 1), date(2026, 10, 5), baseNow.Add(-3*time.Hour))
		newer := e.seed(t, r.ID, booking.StatusPending, date(2026, 10, 3), date(2026, 10, 6), baseNow.Add(-time.Hour))

		rejected, err := e.rec.SweepConflicts(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, rejected)
		assert.Equal(t, booking.StatusPending, e.status(t, older.ID))
		assert.Equal(t, booking.StatusRejected, e.status(t, newer.ID))

		b, err := e.store.GetByID(ctx, newer.ID)
		require.NoError(t, err)
		assert.Contains(t, b.SpecialRequests, "conflict with booking #"+older.ID)
	})

	t.Run("Touching pendings are left alone", func(t *testing.T) {
		a := e.seed(t, r.ID, booking.StatusPending, date(2026, 11, 1), date(2026, 11, 3), baseNow.Add(-2*time.Hour))
		b := e.seed(t, r.ID, booking.StatusPending, date(2026, 11, 3), date(2026, 11, 5), baseNow.Add(-time.Hour))

		rejected, err := e.rec.SweepConflicts(ctx)
		require.NoError(t, err)
		assert.Zero(t, rejected)
		assert.Equal(t, booking.StatusPending, e.status(t, a.ID))
		assert.Equal(t, booking.StatusPending, e.status(t, b.ID))
	})
}

func TestCompletePastStays(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	r := e.addRoom(t, "101")

	past := e.seed(t, r.ID, booking.StatusApproved, date(2026, 8, 20), date(2026, 8, 25), baseNow.Add(-20*24*time.Hour))
	current := e.seed(t, r.ID, booking.StatusApproved, date(2026, 8, 28), date(2026, 8, 30), baseNow.Add(-5*24*time.Hour))
	future := e.seed(t, r.ID, booking.StatusApproved, date(2026, 9, 10), date(2026, 9, 12), baseNow.Add(-time.Hour))

	completed, err := e.rec.CompletePastStays(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, completed)

	assert.Equal(t, booking.StatusCompleted, e.status(t, past.ID))
	// Checking out today is not yet past.
	assert.Equal(t, booking.StatusApproved, e.status(t, current.ID))
	assert.Equal(t, booking.StatusApproved, e.status(t, future.ID))

	// Re-running completes nothing further.
	completed, err = e.rec.CompletePastStays(ctx)
	require.NoError(t, err)
	assert.Zero(t, completed)
}

func TestExpirePending(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	r := e.addRoom(t, "101")

	stale := e.seed(t, r.ID, booking.StatusPending, date(2026, 9, 10), date(2026, 9, 12), baseNow.Add(-25*time.Hour))
	fresh := e.seed(t, r.ID, booking.StatusPending, date(2026, 9, 20), date(2026, 9, 22), baseNow.Add(-23*time.Hour))

	expired, err := e.rec.ExpirePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	assert.Equal(t, booking.StatusCancelled, e.status(t, stale.ID))
	assert.Equal(t, booking.StatusPending, e.status(t, fresh.ID))

	b, err := e.store.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Contains(t, b.SpecialRequests, "pending expired")
	assert.Contains(t, b.SpecialRequests, "[auto-cancel ")
}

func TestSendCheckInReminders(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	r := e.addRoom(t, "101")

	// Today is 2026-08-30; reminders go to stays checking in on the 31st.
	tomorrow := e.seed(t, r.ID, booking.StatusApproved, date(2026, 8, 31), date(2026, 9, 2), baseNow.Add(-time.Hour))
	e.seed(t, r.ID, booking.StatusApproved, date(2026, 9, 2), date(2026, 9, 4), baseNow.Add(-time.Hour))
	e.seed(t, r.ID, booking.StatusPending, date(2026, 8, 31), date(2026, 9, 1), baseNow.Add(-time.Hour))

	sent, err := e.rec.SendCheckInReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	events := e.events.all()
	require.Len(t, events, 1)
	assert.Equal(t, booking.EventCheckInReminder, events[0].Type)
	assert.Equal(t, tomorrow.ID, events[0].BookingID)

	t.Run("Repeat run on the same day is idempotent", func(t *testing.T) {
		sent, err := e.rec.SendCheckInReminders(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent)
		assert.Len(t, e.events.all(), 1)
	})

	t.Run("Next day reminds the next cohort", func(t *testing.T) {
		e.clock.Advance(24 * time.Hour)
		sent, err := e.rec.SendCheckInReminders(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent) // the 9/2 stay checks in two days out
		e.clock.Advance(24 * time.Hour)
		sent, err = e.rec.SendCheckInReminders(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, sent)
	})
}

func TestRollupRoomAvailability(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	occupied := e.addRoom(t, "101")
	idle := e.addRoom(t, "102")
	adminClosed := e.addRoom(t, "103")
	require.NoError(t, e.roomSvc.MarkUnavailable(ctx, adminClosed.ID))

	e.seed(t, occupied.ID, booking.StatusApproved, date(2026, 9, 1), date(2026, 9, 5), baseNow.Add(-time.Hour))
	// Past stay does not occupy.
	e.seed(t, idle.ID, booking.StatusCompleted, date(2026, 8, 1), date(2026, 8, 5), baseNow.Add(-40*24*time.Hour))

	updated, err := e.rec.RollupRoomAvailability(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	got, err := e.roomSvc.Get(ctx, occupied.ID)
	require.NoError(t, err)
	assert.False(t, got.Available)

	got, err = e.roomSvc.Get(ctx, idle.ID)
	require.NoError(t, err)
	assert.True(t, got.Available)

	// The rollup never reopens an admin-closed room.
	got, err = e.roomSvc.Get(ctx, adminClosed.ID)
	require.NoError(t, err)
	assert.False(t, got.Available)

	// Re-running changes nothing.
	updated, err = e.rec.RollupRoomAvailability(ctx)
	require.NoError(t, err)
	assert.Zero(t, updated)
}

func TestWeeklyReport(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	r := e.addRoom(t, "101")

	e.seed(t, r.ID, booking.StatusPending, date(2026, 9, 10), date(2026, 9, 12), baseNow.Add(-time.Hour))
	e.seed(t, r.ID, booking.StatusApproved, date(2026, 9, 1), date(2026, 9, 3), baseNow.Add(-2*24*time.Hour))
	// Older than a week, excluded.
	e.seed(t, r.ID, booking.StatusCancelled, date(2026, 8, 1), date(2026, 8, 3), baseNow.Add(-10*24*time.Hour))

	require.NoError(t, e.rec.WeeklyReport(ctx))

	var entry *logrus.Entry
	for _, en := range e.logHook.AllEntries() {
		if en.Message == "weekly booking report" {
			entry = en
		}
	}
	require.NotNil(t, entry)
	assert.Equal(t, 2, entry.Data["total"])
	assert.Equal(t, 1, entry.Data["pending"])
	assert.Equal(t, 1, entry.Data["approved"])
	assert.Equal(t, 0, entry.Data["cancelled"])
}
