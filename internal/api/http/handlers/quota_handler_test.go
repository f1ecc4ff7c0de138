package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/reservation-service/internal/api/dto"
	"github.com/spec-kit/reservation-service/internal/domain"
	"github.com/spec-kit/reservation-service/internal/events"
	"github.com/spec-kit/reservation-service/internal/quota"
)

type stubRestaurantSource struct {
	restaurant *domain.Restaurant
}

func (s *stubRestaurantSource) GetByID(_ context.Context, _ string) (*domain.Restaurant, error) {
	return s.restaurant, nil
}

func newQuotaApp(t *testing.T, limit int64) (*fiber.App, *quota.Tracker) {
	t.Helper()
	tracker := quota.NewTracker(
		quota.NewMemoryStore(),
		&stubRestaurantSource{restaurant: &domain.Restaurant{
			ID:                      "rest-1",
			Name:                    "Chez Test",
			Plan:                    domain.PlanFree,
			MonthlyReservationLimit: limit,
		}},
		events.NewInMemoryDispatcher(),
		zap.NewNop(),
	)

	app := fiber.New()
	handler := NewQuotaHandler(tracker)
	app.Get("/restaurants/:restaurantID/quota", handler.Usage)
	app.Post("/restaurants/:restaurantID/quota/reset", handler.Reset)
	return app, tracker
}

func TestQuotaUsage_ReportsFlooredPercentage(t *testing.T) {
	app, tracker := newQuotaApp(t, 8)

	for i := 0; i < 3; i++ {
		_, err := tracker.Admit(context.Background(), "rest-1")
		require.NoError(t, err)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/restaurants/rest-1/quota", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data dto.QuotaUsageResponse `json:"data"`
	}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &body))

	assert.EqualValues(t, 3, body.Data.Current)
	assert.EqualValues(t, 8, body.Data.Limit)
	assert.EqualValues(t, 5, body.Data.Remaining)
	// 3 of 8 floors to 37, never rounds up.
	assert.Equal(t, 37, body.Data.Percentage)
	assert.False(t, body.Data.Unlimited)
}

func TestQuotaReset_ZeroesTheCounter(t *testing.T) {
	app, tracker := newQuotaApp(t, 4)

	_, err := tracker.Admit(context.Background(), "rest-1")
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest("POST", "/restaurants/rest-1/quota/reset", nil))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	usage, err := tracker.GetUsage(context.Background(), "rest-1")
	require.NoError(t, err)
	assert.EqualValues(t, 0, usage.Current)
}
