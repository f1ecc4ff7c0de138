package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/reservation-service/internal/api/dto"
	"github.com/spec-kit/reservation-service/internal/auth"
	"github.com/spec-kit/reservation-service/internal/domain"
	"github.com/spec-kit/reservation-service/internal/service"
)

// PreferencesHandler exposes per-user notification preferences.
type PreferencesHandler struct {
	prefs *service.PreferenceService
}

// NewPreferencesHandler constructs handler.
func NewPreferencesHandler(prefs *service.PreferenceService) *PreferencesHandler {
	return &PreferencesHandler{prefs: prefs}
}

// Get handles GET /me/preferences. First access materializes the defaults.
func (h *PreferencesHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	pref, err := h.prefs.Get(c.Context(), principal.UserID())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": preferenceResponse(pref)})
}

// Update handles PATCH /me/preferences with a partial body.
func (h *PreferencesHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	var req dto.PreferenceUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	pref, err := h.prefs.Update(c.Context(), principal.UserID(), service.PreferenceUpdateInput{
		PushEnabled:                 req.PushEnabled,
		EmailEnabled:                req.EmailEnabled,
		ReservationCreatedEnabled:   req.ReservationCreatedEnabled,
		ReservationConfirmedEnabled: req.ReservationConfirmedEnabled,
		ReservationCancelledEnabled: req.ReservationCancelledEnabled,
		ReservationUpdatedEnabled:   req.ReservationUpdatedEnabled,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": preferenceResponse(pref)})
}

func preferenceResponse(pref *domain.NotificationPreference) dto.PreferenceResponse {
	return dto.PreferenceResponse{
		PushEnabled:                 pref.PushEnabled,
		EmailEnabled:                pref.EmailEnabled,
		ReservationCreatedEnabled:   pref.ReservationCreatedEnabled,
		ReservationConfirmedEnabled: pref.ReservationConfirmedEnabled,
		ReservationCancelledEnabled: pref.ReservationCancelledEnabled,
		ReservationUpdatedEnabled:   pref.ReservationUpdatedEnabled,
	}
}
