package domain

import "time"

// Plan enumerates subscription tiers for restaurants.
type Plan string

const (
	PlanFree       Plan = "FREE"
	PlanStandard   Plan = "STANDARD"
	PlanEnterprise Plan = "ENTERPRISE"
)

// UnlimitedReservations is the sentinel limit for unmetered plans.
const UnlimitedReservations int64 = -1

// Restaurant is the tenant scoping quota counters, stream subscribers
// and notification recipients.
type Restaurant struct {
	ID                      string
	Name                    string
	Slug                    string
	Plan                    Plan
	MonthlyReservationLimit int64
	Active                  bool
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// Unmetered reports whether the restaurant's plan skips quota tracking.
func (r *Restaurant) Unmetered() bool {
	return r.MonthlyReservationLimit == UnlimitedReservations
}
