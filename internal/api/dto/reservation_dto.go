package dto

import "time"

// ReservationCreateRequest payload for booking a table.
type ReservationCreateRequest struct {
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	PartySize     int       `json:"party_size"`
	StartsAt      time.Time `json:"starts_at"`
	Notes         string    `json:"notes,omitempty"`
}

// ReservationResponse standard reservation representation.
type ReservationResponse struct {
	ID            string    `json:"id"`
	RestaurantID  string    `json:"restaurant_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	PartySize     int       `json:"party_size"`
	StartsAt      time.Time `json:"starts_at"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// QuotaUsageResponse reports the tenant's monthly counter. Percentage is
// floored to whole percent, matching the threshold arithmetic.
type QuotaUsageResponse struct {
	Current    int64 `json:"current"`
	Limit      int64 `json:"limit"`
	Remaining  int64 `json:"remaining"`
	Percentage int   `json:"percentage"`
	Unlimited  bool  `json:"unlimited"`
}
