package events

import (
	"time"

	"github.com/spec-kit/reservation-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventReservationCreated   EventType = "reservation_created"
	EventReservationConfirmed EventType = "reservation_confirmed"
	EventReservationCancelled EventType = "reservation_cancelled"
	EventReservationUpdated   EventType = "reservation_updated"
	EventQuotaThreshold       EventType = "quota_threshold"
)

// Event represents a domain event emitted by services. Events are immutable,
// produced once after the triggering transaction commits, and consumed once
// by the notification dispatcher.
type Event struct {
	ID           string      `json:"id"`
	Type         EventType   `json:"type"`
	RestaurantID string      `json:"restaurant_id"`
	Timestamp    time.Time   `json:"timestamp"`
	Payload      interface{} `json:"payload"`
}

// ReservationPayload summarizes a reservation for dashboard and push frames.
type ReservationPayload struct {
	ReservationID string                   `json:"reservation_id"`
	CustomerName  string                   `json:"customer_name"`
	CustomerEmail string                   `json:"customer_email,omitempty"`
	PartySize     int                      `json:"party_size"`
	StartsAt      time.Time                `json:"starts_at"`
	Status        domain.ReservationStatus `json:"status"`
	// CancelURL is set on creation events so the customer receipt can link
	// the self-service cancellation flow.
	CancelURL string `json:"cancel_url,omitempty"`
}

// QuotaThresholdPayload describes a usage threshold crossing.
type QuotaThresholdPayload struct {
	Threshold  int   `json:"threshold"`
	Current    int64 `json:"current"`
	Limit      int64 `json:"limit"`
	Percentage int   `json:"percentage"`
}

// NewReservationPayload builds the event payload from a reservation.
func NewReservationPayload(r *domain.Reservation) ReservationPayload {
	return ReservationPayload{
		ReservationID: r.ID,
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		PartySize:     r.PartySize,
		StartsAt:      r.StartsAt,
		Status:        r.Status,
	}
}
