package service

import (
	"context"

	"github.com/spec-kit/reservation-service/internal/domain"
	"github.com/spec-kit/reservation-service/internal/repository"
)

// PreferenceService exposes lazily-created notification preferences.
type PreferenceService struct {
	prefs repository.PreferenceRepository
}

// NewPreferenceService builds the service.
func NewPreferenceService(prefs repository.PreferenceRepository) *PreferenceService {
	return &PreferenceService{prefs: prefs}
}

// PreferenceUpdateInput carries a partial update; nil fields keep their
// prior values.
type PreferenceUpdateInput struct {
	PushEnabled                 *bool
	EmailEnabled                *bool
	ReservationCreatedEnabled   *bool
	ReservationConfirmedEnabled *bool
	ReservationCancelledEnabled *bool
	ReservationUpdatedEnabled   *bool
}

// Get returns the user's preferences, creating the default record on first
// access.
func (s *PreferenceService) Get(ctx context.Context, userID string) (*domain.NotificationPreference, error) {
	return s.prefs.Get(ctx, userID)
}

// Update merges only the supplied fields into the stored record.
func (s *PreferenceService) Update(ctx context.Context, userID string, input PreferenceUpdateInput) (*domain.NotificationPreference, error) {
	pref, err := s.prefs.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	applyIfSet(&pref.PushEnabled, input.PushEnabled)
	applyIfSet(&pref.EmailEnabled, input.EmailEnabled)
	applyIfSet(&pref.ReservationCreatedEnabled, input.ReservationCreatedEnabled)
	applyIfSet(&pref.ReservationConfirmedEnabled, input.ReservationConfirmedEnabled)
	applyIfSet(&pref.ReservationCancelledEnabled, input.ReservationCancelledEnabled)
	applyIfSet(&pref.ReservationUpdatedEnabled, input.ReservationUpdatedEnabled)

	if err := s.prefs.Update(ctx, pref); err != nil {
		return nil, err
	}
	return pref, nil
}

func applyIfSet(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
