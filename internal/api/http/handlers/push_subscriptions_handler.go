package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/reservation-service/internal/api/dto"
	"github.com/spec-kit/reservation-service/internal/auth"
	"github.com/spec-kit/reservation-service/internal/domain"
	"github.com/spec-kit/reservation-service/internal/repository"
)

// PushSubscriptionsHandler manages device endpoints for push delivery.
type PushSubscriptionsHandler struct {
	subs repository.PushSubscriptionRepository
}

// NewPushSubscriptionsHandler constructs handler.
func NewPushSubscriptionsHandler(subs repository.PushSubscriptionRepository) *PushSubscriptionsHandler {
	return &PushSubscriptionsHandler{subs: subs}
}

// Register handles POST /me/push-subscriptions. Re-registering an endpoint
// updates the stored keys instead of duplicating it.
func (h *PushSubscriptionsHandler) Register(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	var req dto.PushSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Endpoint == "" {
		return fiber.NewError(http.StatusBadRequest, "endpoint required")
	}

	sub := &domain.PushSubscription{
		UserID:     principal.UserID(),
		Endpoint:   req.Endpoint,
		Keys:       req.Keys,
		DeviceInfo: req.DeviceInfo,
	}
	if err := h.subs.Create(c.Context(), sub); err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"id":       sub.ID,
			"endpoint": sub.Endpoint,
		},
	})
}

// Unregister handles DELETE /me/push-subscriptions. The delete is scoped to
// the caller; an endpoint registered by another user is left untouched.
func (h *PushSubscriptionsHandler) Unregister(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	var req dto.PushSubscriptionDeleteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Endpoint == "" {
		return fiber.NewError(http.StatusBadRequest, "endpoint required")
	}

	if err := h.subs.DeleteByUserAndEndpoint(c.Context(), principal.UserID(), req.Endpoint); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
