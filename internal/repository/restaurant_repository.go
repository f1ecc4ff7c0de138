package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/reservation-service/internal/domain"
)

// RestaurantRepository resolves tenants and their plan limits.
type RestaurantRepository interface {
	Create(ctx context.Context, restaurant *domain.Restaurant) error
	GetByID(ctx context.Context, id string) (*domain.Restaurant, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Restaurant, error)
	UpdatePlan(ctx context.Context, id string, plan domain.Plan, monthlyLimit int64) error
}

type restaurantRepository struct {
	pool *pgxpool.Pool
}

// NewRestaurantRepository instantiates the repository.
func NewRestaurantRepository(pool *pgxpool.Pool) RestaurantRepository {
	return &restaurantRepository{pool: pool}
}

func (r *restaurantRepository) Create(ctx context.Context, restaurant *domain.Restaurant) error {
	const query = `
        INSERT INTO restaurants (name, slug, plan, monthly_reservation_limit, active_flag)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		restaurant.Name,
		restaurant.Slug,
		restaurant.Plan,
		restaurant.MonthlyReservationLimit,
		restaurant.Active,
	).Scan(&restaurant.ID, &restaurant.CreatedAt, &restaurant.UpdatedAt)
}

func (r *restaurantRepository) GetByID(ctx context.Context, id string) (*domain.Restaurant, error) {
	const query = `
        SELECT id, name, slug, plan, monthly_reservation_limit, active_flag, created_at, updated_at
        FROM restaurants WHERE id=$1`

	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *restaurantRepository) GetBySlug(ctx context.Context, slug string) (*domain.Restaurant, error) {
	const query = `
        SELECT id, name, slug, plan, monthly_reservation_limit, active_flag, created_at, updated_at
        FROM restaurants WHERE slug=$1`

	return r.scanOne(r.pool.QueryRow(ctx, query, slug))
}

func (r *restaurantRepository) UpdatePlan(ctx context.Context, id string, plan domain.Plan, monthlyLimit int64) error {
	const query = `
        UPDATE restaurants SET plan=$1, monthly_reservation_limit=$2, updated_at=NOW()
        WHERE id=$3`

	cmd, err := r.pool.Exec(ctx, query, plan, monthlyLimit, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *restaurantRepository) scanOne(row pgx.Row) (*domain.Restaurant, error) {
	var restaurant domain.Restaurant
	if err := row.Scan(
		&restaurant.ID,
		&restaurant.Name,
		&restaurant.Slug,
		&restaurant.Plan,
		&restaurant.MonthlyReservationLimit,
		&restaurant.Active,
		&restaurant.CreatedAt,
		&restaurant.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &restaurant, nil
}
