package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/reservation-service/internal/api/dto"
	"github.com/spec-kit/reservation-service/internal/domain"
	"github.com/spec-kit/reservation-service/internal/service"
)

// ReservationsHandler exposes the booking flow.
type ReservationsHandler struct {
	reservations *service.ReservationService
}

// NewReservationsHandler constructs handler.
func NewReservationsHandler(reservations *service.ReservationService) *ReservationsHandler {
	return &ReservationsHandler{reservations: reservations}
}

// Create handles POST /restaurants/:restaurantID/reservations. A tenant over
// its monthly quota gets a 403 with the upgrade detail in the error body.
func (h *ReservationsHandler) Create(c *fiber.Ctx) error {
	var req dto.ReservationCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	reservation, err := h.reservations.Create(c.Context(), c.Params("restaurantID"), service.ReservationCreateInput{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		PartySize:     req.PartySize,
		StartsAt:      req.StartsAt,
		Notes:         req.Notes,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": reservationResponse(reservation)})
}

// Confirm handles POST /restaurants/:restaurantID/reservations/:id/confirm.
func (h *ReservationsHandler) Confirm(c *fiber.Ctx) error {
	reservation, err := h.reservations.Confirm(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reservationResponse(reservation)})
}

// Cancel handles POST /restaurants/:restaurantID/reservations/:id/cancel.
func (h *ReservationsHandler) Cancel(c *fiber.Ctx) error {
	reservation, err := h.reservations.CancelByStaff(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reservationResponse(reservation)})
}

// CancelByToken handles GET and POST /reservations/cancel. It is the
// self-service link from the confirmation email; the token carries the
// authorization, so the route takes no session.
func (h *ReservationsHandler) CancelByToken(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		var body struct {
			Token string `json:"token"`
		}
		if err := c.BodyParser(&body); err == nil {
			token = body.Token
		}
	}
	if token == "" {
		return fiber.NewError(http.StatusBadRequest, "token required")
	}

	reservation, err := h.reservations.CancelByToken(c.Context(), token)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reservationResponse(reservation)})
}

func reservationResponse(reservation *domain.Reservation) dto.ReservationResponse {
	return dto.ReservationResponse{
		ID:            reservation.ID,
		RestaurantID:  reservation.RestaurantID,
		CustomerName:  reservation.CustomerName,
		CustomerEmail: reservation.CustomerEmail,
		PartySize:     reservation.PartySize,
		StartsAt:      reservation.StartsAt,
		Status:        string(reservation.Status),
		Notes:         reservation.Notes,
		CreatedAt:     reservation.CreatedAt,
	}
}
