package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/reservation-service/internal/domain"
)

// PreferenceRepository stores per-user notification opt-ins. Records are
// created lazily; the user_id uniqueness constraint resolves concurrent
// first-access races, a conflicting insert simply re-fetches.
type PreferenceRepository interface {
	Get(ctx context.Context, userID string) (*domain.NotificationPreference, error)
	Update(ctx context.Context, pref *domain.NotificationPreference) error
}

type preferenceRepository struct {
	pool *pgxpool.Pool
}

// NewPreferenceRepository instantiates the repository.
func NewPreferenceRepository(pool *pgxpool.Pool) PreferenceRepository {
	return &preferenceRepository{pool: pool}
}

const preferenceColumns = `
        user_id, push_enabled, email_enabled,
        reservation_created_enabled, reservation_confirmed_enabled,
        reservation_cancelled_enabled, reservation_updated_enabled,
        created_at, updated_at`

func (r *preferenceRepository) Get(ctx context.Context, userID string) (*domain.NotificationPreference, error) {
	pref, err := r.fetch(ctx, userID)
	if err == nil {
		return pref, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	const insert = `
        INSERT INTO notification_preferences (user_id)
        VALUES ($1)
        ON CONFLICT (user_id) DO NOTHING`
	if _, err := r.pool.Exec(ctx, insert, userID); err != nil {
		return nil, err
	}
	return r.fetch(ctx, userID)
}

func (r *preferenceRepository) Update(ctx context.Context, pref *domain.NotificationPreference) error {
	const query = `
        UPDATE notification_preferences
        SET push_enabled=$1, email_enabled=$2,
            reservation_created_enabled=$3, reservation_confirmed_enabled=$4,
            reservation_cancelled_enabled=$5, reservation_updated_enabled=$6,
            updated_at=NOW()
        WHERE user_id=$7`

	cmd, err := r.pool.Exec(ctx, query,
		pref.PushEnabled,
		pref.EmailEnabled,
		pref.ReservationCreatedEnabled,
		pref.ReservationConfirmedEnabled,
		pref.ReservationCancelledEnabled,
		pref.ReservationUpdatedEnabled,
		pref.UserID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *preferenceRepository) fetch(ctx context.Context, userID string) (*domain.NotificationPreference, error) {
	const query = `SELECT ` + preferenceColumns + ` FROM notification_preferences WHERE user_id=$1`

	var pref domain.NotificationPreference
	if err := r.pool.QueryRow(ctx, query, userID).Scan(
		&pref.UserID,
		&pref.PushEnabled,
		&pref.EmailEnabled,
		&pref.ReservationCreatedEnabled,
		&pref.ReservationConfirmedEnabled,
		&pref.ReservationCancelledEnabled,
		&pref.ReservationUpdatedEnabled,
		&pref.CreatedAt,
		&pref.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &pref, nil
}
