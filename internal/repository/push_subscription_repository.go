package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/reservation-service/internal/domain"
)

// PushSubscriptionRepository stores registered device endpoints.
// DeleteByEndpoint is reserved for provider-driven pruning; user-initiated
// removal goes through DeleteByUserAndEndpoint so callers cannot unregister
// someone else's device.
type PushSubscriptionRepository interface {
	Create(ctx context.Context, sub *domain.PushSubscription) error
	ListByUser(ctx context.Context, userID string) ([]*domain.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
	DeleteByUserAndEndpoint(ctx context.Context, userID, endpoint string) error
}

type pushSubscriptionRepository struct {
	pool *pgxpool.Pool
}

// NewPushSubscriptionRepository instantiates the repository.
func NewPushSubscriptionRepository(pool *pgxpool.Pool) PushSubscriptionRepository {
	return &pushSubscriptionRepository{pool: pool}
}

func (r *pushSubscriptionRepository) Create(ctx context.Context, sub *domain.PushSubscription) error {
	// Re-registering an endpoint rebinds it to the latest user and keys.
	const query = `
        INSERT INTO push_subscriptions (user_id, endpoint, keys, device_info)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (endpoint) DO UPDATE
        SET user_id=EXCLUDED.user_id, keys=EXCLUDED.keys, device_info=EXCLUDED.device_info, updated_at=NOW()
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		sub.UserID,
		sub.Endpoint,
		sub.Keys,
		sub.DeviceInfo,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
}

func (r *pushSubscriptionRepository) ListByUser(ctx context.Context, userID string) ([]*domain.PushSubscription, error) {
	const query = `
        SELECT id, user_id, endpoint, keys, device_info, created_at, updated_at
        FROM push_subscriptions WHERE user_id=$1
        ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.PushSubscription
	for rows.Next() {
		var sub domain.PushSubscription
		if err := rows.Scan(
			&sub.ID,
			&sub.UserID,
			&sub.Endpoint,
			&sub.Keys,
			&sub.DeviceInfo,
			&sub.CreatedAt,
			&sub.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &sub)
	}
	return result, rows.Err()
}

func (r *pushSubscriptionRepository) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	const query = `DELETE FROM push_subscriptions WHERE endpoint=$1`
	_, err := r.pool.Exec(ctx, query, endpoint)
	return err
}

func (r *pushSubscriptionRepository) DeleteByUserAndEndpoint(ctx context.Context, userID, endpoint string) error {
	const query = `DELETE FROM push_subscriptions WHERE user_id=$1 AND endpoint=$2`
	_, err := r.pool.Exec(ctx, query, userID, endpoint)
	return err
}
