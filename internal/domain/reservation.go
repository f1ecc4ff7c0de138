package domain

import "time"

// ReservationStatus enumerates lifecycle states for reservations.
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "PENDING"
	ReservationStatusConfirmed ReservationStatus = "CONFIRMED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
)

// Reservation is the aggregate for table bookings.
type Reservation struct {
	ID            string
	RestaurantID  string
	CustomerName  string
	CustomerEmail string
	PartySize     int
	StartsAt      time.Time
	Status        ReservationStatus
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CancelledAt   *time.Time
}
