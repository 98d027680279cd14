// Package memory provides in-memory implementations of the booking store,
// room registry and user repository. They back the package test suites so
// lifecycle and reconciliation scenarios can run without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vkotelnikov/hotel-booking-backend/internal/booking"
	"github.com/vkotelnikov/hotel-booking-backend/internal/room"
	"github.com/vkotelnikov/hotel-booking-backend/internal/user"
)

// Store is an in-memory booking.Store. InTx serialises all transactions
// behind one mutex and rolls the maps back when fn fails, which gives the
// same observable semantics as a serializable database transaction.
type Store struct {
	mu        sync.Mutex
	root      *Store // non-nil when this value is a transaction view
	bookings  map[string]*booking.Booking
	seq       map[string]int
	next      int
	reminders map[string]struct{}

	// UserEmail resolves a user id to an account email for ListByAnyEmail.
	// Left nil, only guest emails match.
	UserEmail func(userID string) (string, bool)
}

func NewStore() *Store {
	return &Store{
		bookings:  make(map[string]*booking.Booking),
		seq:       make(map[string]int),
		reminders: make(map[string]struct{}),
	}
}

func (s *Store) state() *Store {
	if s.root != nil {
		return s.root
	}
	return s
}

// enter locks the root store unless this value is a transaction view, in
// which case the surrounding InTx already holds the lock.
func (s *Store) enter() (*Store, func()) {
	if s.root != nil {
		return s.root, func() {}
	}
	s.mu.Lock()
	return s, s.mu.Unlock
}

func (s *Store) InTx(_ context.Context, fn func(booking.Store) error) error {
	if s.root != nil {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	backupBookings := make(map[string]*booking.Booking, len(s.bookings))
	for id, b := range s.bookings {
		cp := *b
		backupBookings[id] = &cp
	}
	backupSeq := make(map[string]int, len(s.seq))
	for id, n := range s.seq {
		backupSeq[id] = n
	}
	backupReminders := make(map[string]struct{}, len(s.reminders))
	for k := range s.reminders {
		backupReminders[k] = struct{}{}
	}
	backupNext := s.next

	view := &Store{root: s, UserEmail: s.UserEmail}
	if err := fn(view); err != nil {
		s.bookings = backupBookings
		s.seq = backupSeq
		s.reminders = backupReminders
		s.next = backupNext
		return err
	}
	return nil
}

func (s *Store) Create(_ context.Context, b *booking.Booking) error {
	st, unlock := s.enter()
	defer unlock()

	cp := *b
	st.bookings[b.ID] = &cp
	st.seq[b.ID] = st.next
	st.next++
	return nil
}

func (s *Store) Update(_ context.Context, b *booking.Booking) error {
	st, unlock := s.enter()
	defer unlock()

	if _, ok := st.bookings[b.ID]; !ok {
		return booking.ErrNotFound
	}
	cp := *b
	st.bookings[b.ID] = &cp
	return nil
}

func (s *Store) GetByID(_ context.Context, id string) (*booking.Booking, error) {
	st, unlock := s.enter()
	defer unlock()

	b, ok := st.bookings[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *Store) ListAll(ctx context.Context) ([]*booking.Booking, error) {
	return s.filter(func(*booking.Booking) bool { return true }), nil
}

func (s *Store) ListByUser(_ context.Context, userID string) ([]*booking.Booking, error) {
	return s.filter(func(b *booking.Booking) bool { return b.UserID == userID }), nil
}

func (s *Store) ListByRoom(_ context.Context, roomID string) ([]*booking.Booking, error) {
	return s.filter(func(b *booking.Booking) bool { return b.RoomID == roomID }), nil
}

func (s *Store) ListByStatus(_ context.Context, status booking.Status) ([]*booking.Booking, error) {
	return s.filter(func(b *booking.Booking) bool { return b.Status == status }), nil
}

func (s *Store) ListByStatusInRange(_ context.Context, status booking.Status, from, to time.Time) ([]*booking.Booking, error) {
	return s.filter(func(b *booking.Booking) bool {
		return b.Status == status && !b.CheckIn.Before(from) && !b.CheckOut.After(to)
	}), nil
}

func (s *Store) ListByGuestEmail(_ context.Context, email string) ([]*booking.Booking, error) {
	return s.filter(func(b *booking.Booking) bool { return b.GuestEmail == email }), nil
}

func (s *Store) ListByAnyEmail(_ context.Context, email string) ([]*booking.Booking, error) {
	resolve := s.state().UserEmail
	return s.filter(func(b *booking.Booking) bool {
		if b.GuestEmail == email {
			return true
		}
		if resolve == nil {
			return false
		}
		owner, ok := resolve(b.UserID)
		return ok && owner == email
	}), nil
}

func (s *Store) ListCreatedSince(_ context.Context, since time.Time) ([]*booking.Booking, error) {
	return s.filter(func(b *booking.Booking) bool { return !b.CreatedAt.Before(since) }), nil
}

func (s *Store) Overlapping(_ context.Context, roomID string, in, out time.Time, statuses []booking.Status) ([]*booking.Booking, error) {
	return s.filter(func(b *booking.Booking) bool {
		if b.RoomID != roomID || !b.Overlaps(in, out) {
			return false
		}
		for _, status := range statuses {
			if b.Status == status {
				return true
			}
		}
		return false
	}), nil
}

func (s *Store) HasActiveForRoom(_ context.Context, roomID string) (bool, error) {
	return len(s.filter(func(b *booking.Booking) bool {
		return b.RoomID == roomID && b.Status.Active()
	})) > 0, nil
}

func (s *Store) HasActiveForUser(_ context.Context, userID string) (bool, error) {
	return len(s.filter(func(b *booking.Booking) bool {
		return b.UserID == userID && b.Status.Active()
	})) > 0, nil
}

func (s *Store) HasActiveOnOrAfter(_ context.Context, roomID string, day time.Time) (bool, error) {
	return len(s.filter(func(b *booking.Booking) bool {
		return b.RoomID == roomID && b.Status.Active() && !b.CheckOut.Before(day)
	})) > 0, nil
}

func (s *Store) MarkReminder(_ context.Context, bookingID string, day time.Time) (bool, error) {
	st, unlock := s.enter()
	defer unlock()

	key := bookingID + "@" + day.Format("2006-01-02")
	if _, seen := st.reminders[key]; seen {
		return false, nil
	}
	st.reminders[key] = struct{}{}
	return true, nil
}

// filter returns copies of matching bookings ordered by creation.
func (s *Store) filter(keep func(*booking.Booking) bool) []*booking.Booking {
	st, unlock := s.enter()
	defer unlock()

	var out []*booking.Booking
	for _, b := range st.bookings {
		if keep(b) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return st.seq[out[i].ID] < st.seq[out[j].ID]
	})
	return out
}

// Rooms is an in-memory room.Repository preserving insertion order.
type Rooms struct {
	mu    sync.Mutex
	rooms map[string]*room.Room
	order []string
	now   func() time.Time
}

func NewRooms() *Rooms {
	return &Rooms{
		rooms: make(map[string]*room.Room),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *Rooms) Create(_ context.Context, rm *room.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.rooms {
		if existing.Number == rm.Number {
			return room.ErrDuplicateNumber
		}
	}
	if rm.ID == "" {
		rm.ID = uuid.NewString()
	}
	if rm.CreatedAt.IsZero() {
		rm.CreatedAt = r.now()
	}
	cp := *rm
	r.rooms[rm.ID] = &cp
	r.order = append(r.order, rm.ID)
	return nil
}

func (r *Rooms) Update(_ context.Context, rm *room.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[rm.ID]; !ok {
		return room.ErrNotFound
	}
	for id, existing := range r.rooms {
		if id != rm.ID && existing.Number == rm.Number {
			return room.ErrDuplicateNumber
		}
	}
	cp := *rm
	r.rooms[rm.ID] = &cp
	return nil
}

func (r *Rooms) GetByID(_ context.Context, id string) (*room.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[id]
	if !ok {
		return nil, room.ErrNotFound
	}
	cp := *rm
	return &cp, nil
}

func (r *Rooms) ListAll(_ context.Context) ([]*room.Room, error) {
	return r.list(func(*room.Room) bool { return true }), nil
}

func (r *Rooms) ListAvailable(_ context.Context) ([]*room.Room, error) {
	return r.list(func(rm *room.Room) bool { return rm.Available }), nil
}

func (r *Rooms) list(keep func(*room.Room) bool) []*room.Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*room.Room
	for _, id := range r.order {
		rm, ok := r.rooms[id]
		if !ok || !keep(rm) {
			continue
		}
		cp := *rm
		out = append(out, &cp)
	}
	return out
}

func (r *Rooms) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[id]; !ok {
		return room.ErrNotFound
	}
	delete(r.rooms, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Users is an in-memory user.Repository.
type Users struct {
	mu    sync.Mutex
	users map[string]*user.User
}

func NewUsers() *Users {
	return &Users{users: make(map[string]*user.User)}
}

// Add registers a user, assigning an id when missing, and returns it.
func (u *Users) Add(usr *user.User) *user.User {
	u.mu.Lock()
	defer u.mu.Unlock()

	if usr.ID == "" {
		usr.ID = uuid.NewString()
	}
	cp := *usr
	u.users[usr.ID] = &cp
	return usr
}

func (u *Users) GetByID(_ context.Context, id string) (*user.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	usr, ok := u.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *usr
	return &cp, nil
}

func (u *Users) GetByUsername(_ context.Context, username string) (*user.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	for _, usr := range u.users {
		if usr.Username == username {
			cp := *usr
			return &cp, nil
		}
	}
	return nil, user.ErrNotFound
}

func (u *Users) List(_ context.Context) ([]*user.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	var out []*user.User
	for _, usr := range u.users {
		cp := *usr
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (u *Users) Delete(_ context.Context, id string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if _, ok := u.users[id]; !ok {
		return user.ErrNotFound
	}
	delete(u.users, id)
	return nil
}

// EmailResolver adapts Users for Store.UserEmail.
func (u *Users) EmailResolver() func(string) (string, bool) {
	return func(id string) (string, bool) {
		usr, err := u.GetByID(context.Background(), id)
		if err != nil {
			return "", false
		}
		return usr.Email, true
	}
}
