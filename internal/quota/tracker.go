package quota

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/reservation-service/internal/domain"
	"github.com/spec-kit/reservation-service/internal/events"
)

// RestaurantSource resolves the tenant and its plan limit.
type RestaurantSource interface {
	GetByID(ctx context.Context, id string) (*domain.Restaurant, error)
}

// Admission is the outcome of an admission request, carrying the detail a
// refusal response needs.
type Admission struct {
	Admitted bool
	Current  int64
	Limit    int64
	Plan     domain.Plan
}

// Tracker gates reservation creation against the tenant's monthly quota and
// emits quota_threshold events on first crossings.
type Tracker struct {
	store       Store
	restaurants RestaurantSource
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	now         func() time.Time
}

// NewTracker builds the tracker.
func NewTracker(store Store, restaurants RestaurantSource, dispatcher events.Dispatcher, logger *zap.Logger) *Tracker {
	return &Tracker{
		store:       store,
		restaurants: restaurants,
		dispatcher:  dispatcher,
		logger:      logger,
		now:         time.Now,
	}
}

// Admit loads the tenant's limit and runs the atomic counter transition.
// Unmetered plans are admitted without allocating a counter. Threshold
// crossings are published before returning so each fires exactly once.
func (t *Tracker) Admit(ctx context.Context, restaurantID string) (*Admission, error) {
	restaurant, err := t.restaurants.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if restaurant.Unmetered() {
		return &Admission{Admitted: true, Limit: domain.UnlimitedReservations, Plan: restaurant.Plan}, nil
	}

	limit := restaurant.MonthlyReservationLimit
	result, err := t.store.Admit(ctx, restaurantID, CurrentPeriod(t.now()), limit)
	if err != nil {
		return nil, err
	}

	admission := &Admission{
		Admitted: result.Admitted,
		Current:  result.Count,
		Limit:    limit,
		Plan:     restaurant.Plan,
	}
	if !result.Admitted {
		return admission, nil
	}

	for _, threshold := range result.Crossed {
		t.publishThreshold(ctx, restaurantID, threshold, result.Count, limit)
	}
	return admission, nil
}

// GetUsage reports the tenant's counter snapshot for the current period.
func (t *Tracker) GetUsage(ctx context.Context, restaurantID string) (*Usage, error) {
	restaurant, err := t.restaurants.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if restaurant.Unmetered() {
		return &Usage{Limit: domain.UnlimitedReservations, Unlimited: true}, nil
	}

	limit := restaurant.MonthlyReservationLimit
	count, err := t.store.Count(ctx, restaurantID, CurrentPeriod(t.now()))
	if err != nil {
		return nil, err
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return &Usage{
		Current:    count,
		Limit:      limit,
		Remaining:  remaining,
		Percentage: percentage(count, limit),
	}, nil
}

// ResetPeriod is the administrative, idempotent counter reset.
func (t *Tracker) ResetPeriod(ctx context.Context, restaurantID string) error {
	return t.store.Reset(ctx, restaurantID, CurrentPeriod(t.now()))
}

func (t *Tracker) publishThreshold(ctx context.Context, restaurantID string, threshold int, count, limit int64) {
	event := events.Event{
		ID:           uuid.NewString(),
		Type:         events.EventQuotaThreshold,
		RestaurantID: restaurantID,
		Timestamp:    t.now(),
		Payload: events.QuotaThresholdPayload{
			Threshold:  threshold,
			Current:    count,
			Limit:      limit,
			Percentage: percentage(count, limit),
		},
	}
	if err := t.dispatcher.Publish(ctx, event); err != nil {
		t.logger.Warn("publish quota threshold",
			zap.String("restaurant_id", restaurantID),
			zap.Int("threshold", threshold),
			zap.Error(err))
	}
}
