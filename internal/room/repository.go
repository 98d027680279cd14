package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jackc/pgerrcode"

	"github.com/vkotelnikov/hotel-booking-backend/internal/pkg/apperror"
)

// Repository is the room registry. It performs no cross-entity checks;
// deletion safety against active bookings is enforced by the booking service.
type Repository interface {
	Create(ctx context.Context, r *Room) error
	Update(ctx context.Context, r *Room) error
	GetByID(ctx context.Context, id string) (*Room, error)
	ListAll(ctx context.Context) ([]*Room, error)
	ListAvailable(ctx context.Context) ([]*Room, error)
	Delete(ctx context.Context, id string) error
}

const roomColumns = "id, number, type, capacity, price_per_night, available, created_at"

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Create(ctx context.Context, room *Room) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.rooms").
		Columns("number", "type", "capacity", "price_per_night", "available").
		Values(room.Number, room.Type, room.Capacity, room.PricePerNight, room.Available).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create room query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&room.ID, &room.CreatedAt); err != nil {
		return mapRoomError(err, "create room failed")
	}
	return nil
}

func (r *pgxRepository) Update(ctx context.Context, room *Room) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.rooms").
		Set("number", room.Number).
		Set("type", room.Type).
		Set("capacity", room.Capacity).
		Set("price_per_night", room.PricePerNight).
		Set("available", room.Available).
		Where(squirrel.Eq{"id": room.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update room query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return mapRoomError(err, "update room failed")
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Room, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(roomColumns).
		From("public.rooms").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get room query failed: %w", err)
	}

	var room Room
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&room.ID, &room.Number, &room.Type, &room.Capacity,
		&room.PricePerNight, &room.Available, &room.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperror.Wrap(err, apperror.KindStoreFailure, "get room failed")
	}
	return &room, nil
}

func (r *pgxRepository) ListAll(ctx context.Context) ([]*Room, error) {
	return r.list(ctx, nil)
}

func (r *pgxRepository) ListAvailable(ctx context.Context) ([]*Room, error) {
	return r.list(ctx, squirrel.Eq{"available": true})
}

func (r *pgxRepository) list(ctx context.Context, pred squirrel.Eq) ([]*Room, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(roomColumns).
		From("public.rooms").
		OrderBy("created_at ASC")
	if pred != nil {
		query = query.Where(pred)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list rooms query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindStoreFailure, "list rooms failed")
	}
	defer rows.Close()

	var rooms []*Room
	for rows.Next() {
		var room Room
		if err := rows.Scan(
			&room.ID, &room.Number, &room.Type, &room.Capacity,
			&room.PricePerNight, &room.Available, &room.CreatedAt,
		); err != nil {
			return nil, apperror.Wrap(err, apperror.KindStoreFailure, "scan room failed")
		}
		rooms = append(rooms, &room)
	}
	return rooms, rows.Err()
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.rooms").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete room query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return mapRoomError(err, "delete room failed")
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// mapRoomError converts pg errors into business errors. Unique violations on
// the room number surface as ErrDuplicateNumber.
func mapRoomError(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrDuplicateNumber
	}
	return apperror.Wrap(err, apperror.KindStoreFailure, msg)
}
