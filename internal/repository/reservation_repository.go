package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/reservation-service/internal/domain"
)

// ReservationRepository persists reservations. The availability rules live
// elsewhere; this subsystem only needs create, lookup and status moves.
type ReservationRepository interface {
	Create(ctx context.Context, reservation *domain.Reservation) error
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)
	UpdateStatus(ctx context.Context, id string, status domain.ReservationStatus) error
	Cancel(ctx context.Context, id string) error
}

type reservationRepository struct {
	pool *pgxpool.Pool
}

// NewReservationRepository instantiates the repository.
func NewReservationRepository(pool *pgxpool.Pool) ReservationRepository {
	return &reservationRepository{pool: pool}
}

func (r *reservationRepository) Create(ctx context.Context, reservation *domain.Reservation) error {
	const query = `
        INSERT INTO reservations (restaurant_id, customer_name, customer_email, party_size, starts_at, status, notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		reservation.RestaurantID,
		reservation.CustomerName,
		reservation.CustomerEmail,
		reservation.PartySize,
		reservation.StartsAt,
		reservation.Status,
		reservation.Notes,
	).Scan(&reservation.ID, &reservation.CreatedAt, &reservation.UpdatedAt)
}

func (r *reservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	const query = `
        SELECT id, restaurant_id, customer_name, customer_email, party_size, starts_at, status, notes,
               created_at, updated_at, cancelled_at
        FROM reservations WHERE id=$1`

	var reservation domain.Reservation
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&reservation.ID,
		&reservation.RestaurantID,
		&reservation.CustomerName,
		&reservation.CustomerEmail,
		&reservation.PartySize,
		&reservation.StartsAt,
		&reservation.Status,
		&reservation.Notes,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
		&reservation.CancelledAt,
	); err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepository) UpdateStatus(ctx context.Context, id string, status domain.ReservationStatus) error {
	const query = `
        UPDATE reservations SET status=$1, updated_at=NOW()
        WHERE id=$2`

	cmd, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *reservationRepository) Cancel(ctx context.Context, id string) error {
	const query = `
        UPDATE reservations SET status=$1, cancelled_at=NOW(), updated_at=NOW()
        WHERE id=$2 AND status <> $1`

	cmd, err := r.pool.Exec(ctx, query, domain.ReservationStatusCancelled, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
