package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jackc/pgerrcode"

	"github.com/vkotelnikov/hotel-booking-backend/internal/pkg/apperror"
)

const bookingColumns = "id, room_id, user_id, check_in, check_out, guest_name, guest_email, special_requests, status, created_at, total_price"

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type pgxStore struct {
	pool *pgxpool.Pool // nil when bound to a transaction
	q    querier
}

// NewPgxStore returns a Store backed by Postgres. Transactions opened by
// InTx run at serializable isolation; a serialization failure at commit is
// reported as a conflict.
func NewPgxStore(pool *pgxpool.Pool) Store {
	return &pgxStore{pool: pool, q: pool}
}

func (s *pgxStore) InTx(ctx context.Context, fn func(Store) error) error {
	if s.pool == nil {
		// Already inside a transaction.
		return fn(s)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return apperror.Wrap(err, apperror.KindStoreFailure, "begin booking transaction failed")
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgxStore{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapBookingError(err, "commit booking transaction failed")
	}
	return nil
}

func (s *pgxStore) Create(ctx context.Context, b *Booking) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.bookings").
		Columns("id", "room_id", "user_id", "check_in", "check_out",
			"guest_name", "guest_email", "special_requests", "status", "created_at", "total_price").
		Values(b.ID, b.RoomID, b.UserID, b.CheckIn, b.CheckOut,
			b.GuestName, b.GuestEmail, b.SpecialRequests, b.Status, b.CreatedAt, b.TotalPrice).
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	if _, err := s.q.Exec(ctx, query, args...); err != nil {
		return mapBookingError(err, "create booking failed")
	}
	return nil
}

func (s *pgxStore) Update(ctx context.Context, b *Booking) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set("check_in", b.CheckIn).
		Set("check_out", b.CheckOut).
		Set("guest_name", b.GuestName).
		Set("guest_email", b.GuestEmail).
		Set("special_requests", b.SpecialRequests).
		Set("status", b.Status).
		Set("total_price", b.TotalPrice).
		Where(squirrel.Eq{"id": b.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking query failed: %w", err)
	}

	ct, err := s.q.Exec(ctx, query, args...)
	if err != nil {
		return mapBookingError(err, "update booking failed")
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *pgxStore) GetByID(ctx context.Context, id string) (*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(bookingColumns).
		From("public.bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	var b Booking
	if err := scanBooking(s.q.QueryRow(ctx, query, args...), &b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperror.Wrap(err, apperror.KindStoreFailure, "get booking failed")
	}
	return &b, nil
}

func (s *pgxStore) ListAll(ctx context.Context) ([]*Booking, error) {
	return s.list(ctx, nil)
}

func (s *pgxStore) ListByUser(ctx context.Context, userID string) ([]*Booking, error) {
	return s.list(ctx, squirrel.Eq{"user_id": userID})
}

func (s *pgxStore) ListByRoom(ctx context.Context, roomID string) ([]*Booking, error) {
	return s.list(ctx, squirrel.Eq{"room_id": roomID})
}

func (s *pgxStore) ListByStatus(ctx context.Context, status Status) ([]*Booking, error) {
	return s.list(ctx, squirrel.Eq{"status": status})
}

func (s *pgxStore) ListByStatusInRange(ctx context.Context, status Status, from, to time.Time) ([]*Booking, error) {
	return s.list(ctx, squirrel.And{
		squirrel.Eq{"status": status},
		squirrel.GtOrEq{"check_in": from},
		squirrel.LtOrEq{"check_out": to},
	})
}

func (s *pgxStore) ListByGuestEmail(ctx context.Context, email string) ([]*Booking, error) {
	return s.list(ctx, squirrel.Eq{"guest_email": email})
}

func (s *pgxStore) ListByAnyEmail(ctx context.Context, email string) ([]*Booking, error) {
	return s.list(ctx, squirrel.Or{
		squirrel.Eq{"guest_email": email},
		squirrel.Expr("user_id IN (SELECT id FROM public.users WHERE email = ?)", email),
	})
}

func (s *pgxStore) ListCreatedSince(ctx context.Context, since time.Time) ([]*Booking, error) {
	return s.list(ctx, squirrel.GtOrEq{"created_at": since})
}

func (s *pgxStore) list(ctx context.Context, pred squirrel.Sqlizer) ([]*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(bookingColumns).
		From("public.bookings").
		OrderBy("created_at ASC")
	if pred != nil {
		query = query.Where(pred)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapBookingError(err, "list bookings failed")
	}
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		var b Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, apperror.Wrap(err, apperror.KindStoreFailure, "scan booking failed")
		}
		bookings = append(bookings, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, mapBookingError(err, "list bookings failed")
	}
	return bookings, nil
}

func (s *pgxStore) Overlapping(ctx context.Context, roomID string, in, out time.Time, statuses []Status) ([]*Booking, error) {
	// Half-open interval intersection: check_in < out AND check_out > in.
	return s.list(ctx, squirrel.And{
		squirrel.Eq{"room_id": roomID},
		squirrel.Eq{"status": statuses},
		squirrel.Lt{"check_in": out},
		squirrel.Gt{"check_out": in},
	})
}

func (s *pgxStore) HasActiveForRoom(ctx context.Context, roomID string) (bool, error) {
	return s.exists(ctx, squirrel.And{
		squirrel.Eq{"room_id": roomID},
		squirrel.Eq{"status": ActiveStatuses},
	})
}

func (s *pgxStore) HasActiveForUser(ctx context.Context, userID string) (bool, error) {
	return s.exists(ctx, squirrel.And{
		squirrel.Eq{"user_id": userID},
		squirrel.Eq{"status": ActiveStatuses},
	})
}

func (s *pgxStore) HasActiveOnOrAfter(ctx context.Context, roomID string, day time.Time) (bool, error) {
	return s.exists(ctx, squirrel.And{
		squirrel.Eq{"room_id": roomID},
		squirrel.Eq{"status": ActiveStatuses},
		squirrel.GtOrEq{"check_out": day},
	})
}

func (s *pgxStore) exists(ctx context.Context, pred squirrel.Sqlizer) (bool, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	sub, args, err := psql.Select("1").
		From("public.bookings").
		Where(pred).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build bookings exists query failed: %w", err)
	}

	var exists bool
	if err := s.q.QueryRow(ctx, "SELECT EXISTS ("+sub+")", args...).Scan(&exists); err != nil {
		return false, mapBookingError(err, "bookings exists query failed")
	}
	return exists, nil
}

func (s *pgxStore) MarkReminder(ctx context.Context, bookingID string, day time.Time) (bool, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.booking_reminders").
		Columns("booking_id", "reminder_date").
		Values(bookingID, day).
		Suffix("ON CONFLICT (booking_id, reminder_date) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build mark reminder query failed: %w", err)
	}

	ct, err := s.q.Exec(ctx, query, args...)
	if err != nil {
		return false, mapBookingError(err, "mark reminder failed")
	}
	return ct.RowsAffected() > 0, nil
}

func scanBooking(row pgx.Row, b *Booking) error {
	return row.Scan(
		&b.ID, &b.RoomID, &b.UserID, &b.CheckIn, &b.CheckOut,
		&b.GuestName, &b.GuestEmail, &b.SpecialRequests, &b.Status,
		&b.CreatedAt, &b.TotalPrice,
	)
}

// mapBookingError converts pg errors into business errors. A serialization
// failure means a concurrent lifecycle operation won; callers see Conflict.
func mapBookingError(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.SerializationFailure:
			return apperror.Wrap(err, apperror.KindConflict, "booking conflicts with a concurrent operation")
		case pgerrcode.UniqueViolation:
			return apperror.Wrap(err, apperror.KindConstraintViolation, "booking violates a uniqueness constraint")
		}
	}
	return apperror.Wrap(err, apperror.KindStoreFailure, msg)
}
