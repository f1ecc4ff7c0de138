package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/reservation-service/internal/api/http/handlers"
	"github.com/spec-kit/reservation-service/internal/auth"
	"github.com/spec-kit/reservation-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health            *handlers.HealthHandler
	Users             *handlers.UsersHandler
	Staff             *handlers.StaffHandler
	Reservations      *handlers.ReservationsHandler
	Quota             *handlers.QuotaHandler
	Preferences       *handlers.PreferencesHandler
	PushSubscriptions *handlers.PushSubscriptionsHandler
	Stream            *handlers.StreamHandler
	AuthMiddleware    *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)

	authGroup.Post("/staff/login", cfg.Staff.Login)
	authGroup.Post("/password/reset/request", cfg.Staff.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Staff.ConfirmPasswordReset)

	protectedAuth := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	protectedAuth.Post("/password/change", cfg.Staff.ChangePassword)

	app.Post("/restaurants/:restaurantID/reservations",
		cfg.AuthMiddleware.Handle, auth.RequireAnyRole(), cfg.Reservations.Create)

	// The emailed cancel link needs no session; the token is the
	// authorization.
	app.Get("/reservations/cancel", cfg.Reservations.CancelByToken)
	app.Post("/reservations/cancel", cfg.Reservations.CancelByToken)

	staffOnly := app.Group("/restaurants/:restaurantID",
		cfg.AuthMiddleware.Handle,
		auth.RequireStaffRole(domain.StaffRoleStaff, domain.StaffRoleManager, domain.StaffRoleAdmin),
	)
	staffOnly.Post("/reservations/:id/confirm", cfg.Reservations.Confirm)
	staffOnly.Post("/reservations/:id/cancel", cfg.Reservations.Cancel)
	staffOnly.Get("/quota", cfg.Quota.Usage)
	staffOnly.Get("/stream", cfg.Stream.Stream)

	adminOnly := app.Group("/restaurants/:restaurantID",
		cfg.AuthMiddleware.Handle,
		auth.RequireStaffRole(domain.StaffRoleAdmin),
	)
	adminOnly.Post("/quota/reset", cfg.Quota.Reset)

	me := app.Group("/me", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	me.Get("/preferences", cfg.Preferences.Get)
	me.Patch("/preferences", cfg.Preferences.Update)
	me.Post("/push-subscriptions", cfg.PushSubscriptions.Register)
	me.Delete("/push-subscriptions", cfg.PushSubscriptions.Unregister)
}
