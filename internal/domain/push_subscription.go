package domain

import "time"

// PushSubscription is a registered device endpoint for push delivery.
// Endpoints are pruned when the provider reports them gone.
type PushSubscription struct {
	ID         string
	UserID     string
	Endpoint   string
	Keys       string
	DeviceInfo string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
