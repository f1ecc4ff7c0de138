package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/reservation-service/internal/api/dto"
	"github.com/spec-kit/reservation-service/internal/quota"
)

// QuotaHandler exposes the tenant's admission counter.
type QuotaHandler struct {
	tracker *quota.Tracker
}

// NewQuotaHandler constructs handler.
func NewQuotaHandler(tracker *quota.Tracker) *QuotaHandler {
	return &QuotaHandler{tracker: tracker}
}

// Usage handles GET /restaurants/:restaurantID/quota.
func (h *QuotaHandler) Usage(c *fiber.Ctx) error {
	usage, err := h.tracker.GetUsage(c.Context(), c.Params("restaurantID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.QuotaUsageResponse{
		Current:    usage.Current,
		Limit:      usage.Limit,
		Remaining:  usage.Remaining,
		Percentage: usage.Percentage,
		Unlimited:  usage.Unlimited,
	}})
}

// Reset handles POST /restaurants/:restaurantID/quota/reset. Admin only;
// resetting an untouched period is a no-op.
func (h *QuotaHandler) Reset(c *fiber.Ctx) error {
	if err := h.tracker.ResetPeriod(c.Context(), c.Params("restaurantID")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "reset"}})
}
