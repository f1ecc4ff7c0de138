package handlers

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/reservation-service/internal/auth"
	"github.com/spec-kit/reservation-service/internal/domain"
)

type recordingPushSubRepo struct {
	created        []*domain.PushSubscription
	scopedDeletes  [][2]string
	pruneEndpoints []string
}

func (r *recordingPushSubRepo) Create(_ context.Context, sub *domain.PushSubscription) error {
	sub.ID = "sub-1"
	r.created = append(r.created, sub)
	return nil
}

func (r *recordingPushSubRepo) ListByUser(_ context.Context, _ string) ([]*domain.PushSubscription, error) {
	return nil, nil
}

func (r *recordingPushSubRepo) DeleteByEndpoint(_ context.Context, endpoint string) error {
	r.pruneEndpoints = append(r.pruneEndpoints, endpoint)
	return nil
}

func (r *recordingPushSubRepo) DeleteByUserAndEndpoint(_ context.Context, userID, endpoint string) error {
	r.scopedDeletes = append(r.scopedDeletes, [2]string{userID, endpoint})
	return nil
}

func newPushSubApp(repo *recordingPushSubRepo, userID string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		auth.StorePrincipal(c, &auth.Principal{
			SubjectType: domain.SubjectTypeUser,
			User:        &domain.User{ID: userID},
		})
		return c.Next()
	})
	handler := NewPushSubscriptionsHandler(repo)
	app.Post("/me/push-subscriptions", handler.Register)
	app.Delete("/me/push-subscriptions", handler.Unregister)
	return app
}

func TestPushSubscriptionRegister_BindsCaller(t *testing.T) {
	repo := &recordingPushSubRepo{}
	app := newPushSubApp(repo, "user-1")

	req := httptest.NewRequest("POST", "/me/push-subscriptions",
		strings.NewReader(`{"endpoint":"https://push.example/abc","keys":"k1"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	require.Len(t, repo.created, 1)
	assert.Equal(t, "user-1", repo.created[0].UserID)
	assert.Equal(t, "https://push.example/abc", repo.created[0].Endpoint)
}

func TestPushSubscriptionUnregister_ScopedToCaller(t *testing.T) {
	repo := &recordingPushSubRepo{}
	app := newPushSubApp(repo, "user-1")

	req := httptest.NewRequest("DELETE", "/me/push-subscriptions",
		strings.NewReader(`{"endpoint":"https://push.example/other-users"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	// The delete carries the caller's identity; the unscoped prune path is
	// never used for user-initiated removal.
	require.Len(t, repo.scopedDeletes, 1)
	assert.Equal(t, [2]string{"user-1", "https://push.example/other-users"}, repo.scopedDeletes[0])
	assert.Empty(t, repo.pruneEndpoints)
}
