package domain

import "time"

// NotificationPreference holds per-user delivery opt-ins. All flags default
// to true; the record is created lazily on first access and never deleted.
type NotificationPreference struct {
	UserID                      string
	PushEnabled                 bool
	EmailEnabled                bool
	ReservationCreatedEnabled   bool
	ReservationConfirmedEnabled bool
	ReservationCancelledEnabled bool
	ReservationUpdatedEnabled   bool
	CreatedAt                   time.Time
	UpdatedAt                   time.Time
}

// DefaultNotificationPreference returns the all-enabled preference for a user.
func DefaultNotificationPreference(userID string) *NotificationPreference {
	return &NotificationPreference{
		UserID:                      userID,
		PushEnabled:                 true,
		EmailEnabled:                true,
		ReservationCreatedEnabled:   true,
		ReservationConfirmedEnabled: true,
		ReservationCancelledEnabled: true,
		ReservationUpdatedEnabled:   true,
	}
}
