package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/reservation-service/internal/domain"
	"github.com/spec-kit/reservation-service/internal/events"
	"github.com/spec-kit/reservation-service/internal/quota"
	"github.com/spec-kit/reservation-service/internal/token"
	apperrors "github.com/spec-kit/reservation-service/pkg/util/errorutil"
)

type memoryReservationRepo struct {
	mu      sync.Mutex
	nextID  int
	records map[string]*domain.Reservation
}

func newMemoryReservationRepo() *memoryReservationRepo {
	return &memoryReservationRepo{records: make(map[string]*domain.Reservation)}
}

func (r *memoryReservationRepo) Create(_ context.Context, reservation *domain.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	reservation.ID = "res-" + strconv.Itoa(r.nextID)
	reservation.CreatedAt = time.Now()
	reservation.UpdatedAt = reservation.CreatedAt
	copied := *reservation
	r.records[reservation.ID] = &copied
	return nil
}

func (r *memoryReservationRepo) GetByID(_ context.Context, id string) (*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reservation, ok := r.records[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *reservation
	return &copied, nil
}

func (r *memoryReservationRepo) UpdateStatus(_ context.Context, id string, status domain.ReservationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reservation, ok := r.records[id]
	if !ok {
		return pgx.ErrNoRows
	}
	reservation.Status = status
	return nil
}

func (r *memoryReservationRepo) Cancel(_ context.Context, id string) error {
	return r.UpdateStatus(context.Background(), id, domain.ReservationStatusCancelled)
}

type staticRestaurantSource struct {
	restaurant *domain.Restaurant
}

func (s *staticRestaurantSource) GetByID(_ context.Context, _ string) (*domain.Restaurant, error) {
	return s.restaurant, nil
}

type capturingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *capturingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *capturingDispatcher) Subscribe(_ events.EventType, _ events.EventHandler) {}

func (d *capturingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.events))
	for _, ev := range d.events {
		out = append(out, ev.Type)
	}
	return out
}

// reservationTypes drops quota_threshold events, which the tracker emits on
// crossings independently of the reservation lifecycle.
func (d *capturingDispatcher) reservationTypes() []events.EventType {
	out := make([]events.EventType, 0)
	for _, eventType := range d.types() {
		if eventType != events.EventQuotaThreshold {
			out = append(out, eventType)
		}
	}
	return out
}

func (d *capturingDispatcher) countOf(eventType events.EventType) int {
	n := 0
	for _, t := range d.types() {
		if t == eventType {
			n++
		}
	}
	return n
}

func newReservationFixture(t *testing.T, limit int64) (*ReservationService, *capturingDispatcher, *token.Service) {
	t.Helper()
	tokens, err := token.NewService("test-secret", 0, 0)
	require.NoError(t, err)

	dispatcher := &capturingDispatcher{}
	tracker := quota.NewTracker(
		quota.NewMemoryStore(),
		&staticRestaurantSource{restaurant: &domain.Restaurant{
			ID:                      "rest-1",
			Name:                    "Chez Test",
			Plan:                    domain.PlanFree,
			MonthlyReservationLimit: limit,
		}},
		dispatcher,
		zap.NewNop(),
	)

	svc := NewReservationService(ReservationDependencies{
		ReservationRepo: newMemoryReservationRepo(),
		Quota:           tracker,
		Tokens:          tokens,
		Dispatcher:      dispatcher,
		PublicBaseURL:   "https://book.example",
	})
	return svc, dispatcher, tokens
}

func validInput() ReservationCreateInput {
	return ReservationCreateInput{
		CustomerName:  "Ada",
		CustomerEmail: "ada@example.com",
		PartySize:     2,
		StartsAt:      time.Now().Add(48 * time.Hour),
	}
}

func TestReservationCreate_PublishesEventWithCancelURL(t *testing.T) {
	svc, dispatcher, _ := newReservationFixture(t, 10)

	reservation, err := svc.Create(context.Background(), "rest-1", validInput())
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusPending, reservation.Status)

	require.Equal(t, []events.EventType{events.EventReservationCreated}, dispatcher.types())
	payload := dispatcher.events[0].Payload.(events.ReservationPayload)
	assert.Equal(t, reservation.ID, payload.ReservationID)
	assert.True(t, strings.HasPrefix(payload.CancelURL, "https://book.example/reservations/cancel?token="))
}

func TestReservationCreate_QuotaRefusalIs403WithDetail(t *testing.T) {
	svc, dispatcher, _ := newReservationFixture(t, 1)
	ctx := context.Background()

	_, err := svc.Create(ctx, "rest-1", validInput())
	require.NoError(t, err)

	_, err = svc.Create(ctx, "rest-1", validInput())
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "QUOTA_EXCEEDED", domainErr.Code)
	assert.Equal(t, 403, domainErr.HTTPStatus)
	assert.EqualValues(t, 1, domainErr.Details["current"])
	assert.EqualValues(t, 1, domainErr.Details["limit"])
	assert.Equal(t, string(domain.PlanFree), domainErr.Details["plan"])

	// Refusal never produces a reservation event. The single admitted
	// booking filled a limit of 1, so all three thresholds fired with it.
	assert.Equal(t, []events.EventType{events.EventReservationCreated}, dispatcher.reservationTypes())
	assert.Equal(t, 3, dispatcher.countOf(events.EventQuotaThreshold))
}

func TestReservationCreate_ValidationBeforeAdmission(t *testing.T) {
	svc, dispatcher, _ := newReservationFixture(t, 1)

	input := validInput()
	input.PartySize = 0
	_, err := svc.Create(context.Background(), "rest-1", input)
	require.Error(t, err)
	assert.Empty(t, dispatcher.types())

	// The invalid attempt consumed no quota.
	_, err = svc.Create(context.Background(), "rest-1", validInput())
	assert.NoError(t, err)
}

func TestCancelByToken_RoundTrip(t *testing.T) {
	svc, dispatcher, _ := newReservationFixture(t, 10)
	ctx := context.Background()

	reservation, err := svc.Create(ctx, "rest-1", validInput())
	require.NoError(t, err)

	signed, _, err := svc.CancelToken(reservation)
	require.NoError(t, err)

	cancelled, err := svc.CancelByToken(ctx, signed)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusCancelled, cancelled.Status)
	assert.Equal(t,
		[]events.EventType{events.EventReservationCreated, events.EventReservationCancelled},
		dispatcher.types())
}

func TestCancelByToken_WrongKindRejected(t *testing.T) {
	svc, _, tokens := newReservationFixture(t, 10)
	ctx := context.Background()

	reservation, err := svc.Create(ctx, "rest-1", validInput())
	require.NoError(t, err)

	resetToken, _, err := tokens.Issue(token.KindPasswordReset, reservation.ID, reservation.RestaurantID)
	require.NoError(t, err)

	_, err = svc.CancelByToken(ctx, resetToken)
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "UNAUTHORIZED", domainErr.Code)
	assert.Equal(t, "Invalid token type", domainErr.Message)
}

func TestCancelByToken_TenantMismatchRejected(t *testing.T) {
	svc, _, tokens := newReservationFixture(t, 10)
	ctx := context.Background()

	reservation, err := svc.Create(ctx, "rest-1", validInput())
	require.NoError(t, err)

	// A token minted for another tenant must not cancel this reservation.
	foreign, _, err := tokens.Issue(token.KindReservationCancel, reservation.ID, "rest-2")
	require.NoError(t, err)

	_, err = svc.CancelByToken(ctx, foreign)
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "UNAUTHORIZED", domainErr.Code)
}

func TestCancel_AlreadyCancelledConflicts(t *testing.T) {
	svc, _, _ := newReservationFixture(t, 10)
	ctx := context.Background()

	reservation, err := svc.Create(ctx, "rest-1", validInput())
	require.NoError(t, err)

	_, err = svc.CancelByStaff(ctx, reservation.ID)
	require.NoError(t, err)

	_, err = svc.CancelByStaff(ctx, reservation.ID)
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "CONFLICT", domainErr.Code)
}

func TestConfirm_PublishesEvent(t *testing.T) {
	svc, dispatcher, _ := newReservationFixture(t, 10)
	ctx := context.Background()

	reservation, err := svc.Create(ctx, "rest-1", validInput())
	require.NoError(t, err)

	confirmed, err := svc.Confirm(ctx, reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusConfirmed, confirmed.Status)
	assert.Contains(t, dispatcher.types(), events.EventReservationConfirmed)
}
