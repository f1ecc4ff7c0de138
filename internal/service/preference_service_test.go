package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/reservation-service/internal/domain"
)

type memoryPreferenceRepo struct {
	records map[string]*domain.NotificationPreference
}

func newMemoryPreferenceRepo() *memoryPreferenceRepo {
	return &memoryPreferenceRepo{records: make(map[string]*domain.NotificationPreference)}
}

func (r *memoryPreferenceRepo) Get(_ context.Context, userID string) (*domain.NotificationPreference, error) {
	if pref, ok := r.records[userID]; ok {
		copied := *pref
		return &copied, nil
	}
	pref := domain.DefaultNotificationPreference(userID)
	r.records[userID] = pref
	copied := *pref
	return &copied, nil
}

func (r *memoryPreferenceRepo) Update(_ context.Context, pref *domain.NotificationPreference) error {
	copied := *pref
	r.records[pref.UserID] = &copied
	return nil
}

func TestPreferenceService_GetCreatesDefaults(t *testing.T) {
	svc := NewPreferenceService(newMemoryPreferenceRepo())

	pref, err := svc.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, pref.PushEnabled)
	assert.True(t, pref.EmailEnabled)
	assert.True(t, pref.ReservationCreatedEnabled)
	assert.True(t, pref.ReservationUpdatedEnabled)
}

func TestPreferenceService_PartialUpdateKeepsUnspecifiedFields(t *testing.T) {
	svc := NewPreferenceService(newMemoryPreferenceRepo())
	ctx := context.Background()

	off := false
	updated, err := svc.Update(ctx, "user-1", PreferenceUpdateInput{PushEnabled: &off})
	require.NoError(t, err)
	assert.False(t, updated.PushEnabled)
	assert.True(t, updated.EmailEnabled)
	assert.True(t, updated.ReservationCancelledEnabled)

	// A later partial update does not resurrect the earlier change.
	on := true
	updated, err = svc.Update(ctx, "user-1", PreferenceUpdateInput{ReservationCreatedEnabled: &off, EmailEnabled: &on})
	require.NoError(t, err)
	assert.False(t, updated.PushEnabled)
	assert.False(t, updated.ReservationCreatedEnabled)
	assert.True(t, updated.EmailEnabled)
}
