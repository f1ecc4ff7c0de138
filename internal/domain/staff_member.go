package domain

import "time"

// StaffRole enumerates restaurant operator roles.
type StaffRole string

const (
	StaffRoleStaff   StaffRole = "STAFF"
	StaffRoleManager StaffRole = "MANAGER"
	StaffRoleAdmin   StaffRole = "ADMIN"
)

// StaffMember models a restaurant operator who watches the dashboard.
type StaffMember struct {
	ID           string
	RestaurantID string
	Name         string
	Email        string
	PasswordHash string
	Role         StaffRole
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
