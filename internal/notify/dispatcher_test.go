package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/reservation-service/internal/domain"
	"github.com/spec-kit/reservation-service/internal/events"
	"github.com/spec-kit/reservation-service/internal/observability"
	"github.com/spec-kit/reservation-service/internal/sse"
)

type fakeStaff struct {
	members []*domain.StaffMember
	err     error
}

func (f *fakeStaff) ListByRestaurant(_ context.Context, _ string) ([]*domain.StaffMember, error) {
	return f.members, f.err
}

type fakePrefs struct {
	pref *domain.NotificationPreference
}

func (f *fakePrefs) Get(_ context.Context, userID string) (*domain.NotificationPreference, error) {
	if f.pref != nil {
		return f.pref, nil
	}
	return domain.DefaultNotificationPreference(userID), nil
}

type fakePushSubs struct {
	mu     sync.Mutex
	subs   []*domain.PushSubscription
	pruned []string
}

func (f *fakePushSubs) ListByUser(_ context.Context, _ string) ([]*domain.PushSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*domain.PushSubscription{}, f.subs...), nil
}

func (f *fakePushSubs) DeleteByEndpoint(_ context.Context, endpoint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pruned = append(f.pruned, endpoint)
	return nil
}

type fakeRestaurants struct{}

func (f *fakeRestaurants) GetByID(_ context.Context, id string) (*domain.Restaurant, error) {
	return &domain.Restaurant{ID: id, Name: "Chez Test"}, nil
}

type fakeEmail struct {
	mu       sync.Mutex
	attempts int
	// errs is consumed per attempt; nil entries mean success. When the slice
	// runs out every further attempt succeeds.
	errs []error
	sent []EmailMessage
}

func (f *fakeEmail) Send(_ context.Context, msg EmailMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var err error
	if f.attempts < len(f.errs) {
		err = f.errs[f.attempts]
	}
	f.attempts++
	if err == nil {
		f.sent = append(f.sent, msg)
	}
	return err
}

func (f *fakeEmail) attemptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

func (f *fakeEmail) sentMessages() []EmailMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]EmailMessage{}, f.sent...)
}

type fakePush struct {
	mu        sync.Mutex
	errs      map[string]error
	delivered []string
}

func (f *fakePush) Send(_ context.Context, endpoint string, _ PushPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[endpoint]; ok {
		return err
	}
	f.delivered = append(f.delivered, endpoint)
	return nil
}

func (f *fakePush) deliveredEndpoints() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.delivered...)
}

type fixture struct {
	dispatcher *Dispatcher
	hub        *sse.Hub
	email      *fakeEmail
	push       *fakePush
	pushSubs   *fakePushSubs
}

func newFixture(t *testing.T, opts DispatcherDeps) *fixture {
	t.Helper()
	hub := sse.NewHub(8, time.Second, zap.NewNop())
	email := &fakeEmail{}
	push := &fakePush{errs: map[string]error{}}
	pushSubs := &fakePushSubs{subs: []*domain.PushSubscription{
		{ID: "sub-1", UserID: "staff-1", Endpoint: "https://push.example/ep-1"},
	}}

	deps := DispatcherDeps{
		Hub: hub,
		Staff: &fakeStaff{members: []*domain.StaffMember{
			{ID: "staff-1", RestaurantID: "rest-1", Email: "staff@example.com", Active: true},
		}},
		Prefs:            &fakePrefs{},
		PushSubs:         pushSubs,
		Restaurants:      &fakeRestaurants{},
		Email:            email,
		Push:             push,
		Logger:           zap.NewNop(),
		Metrics:          observability.NewMetrics(),
		EmailMaxAttempts: 3,
		EmailBackoff:     time.Millisecond,
	}
	if opts.Staff != nil {
		deps.Staff = opts.Staff
	}
	if opts.Prefs != nil {
		deps.Prefs = opts.Prefs
	}
	if opts.Email != nil {
		deps.Email = opts.Email
	}

	return &fixture{
		dispatcher: NewDispatcher(deps),
		hub:        hub,
		email:      email,
		push:       push,
		pushSubs:   pushSubs,
	}
}

func reservationEvent(eventType events.EventType, customerEmail string) events.Event {
	return events.Event{
		ID:           "ev-1",
		Type:         eventType,
		RestaurantID: "rest-1",
		Timestamp:    time.Now(),
		Payload: events.ReservationPayload{
			ReservationID: "res-1",
			CustomerName:  "Ada",
			CustomerEmail: customerEmail,
			PartySize:     4,
			StartsAt:      time.Date(2026, time.September, 3, 19, 0, 0, 0, time.UTC),
			Status:        domain.ReservationStatusPending,
		},
	}
}

func TestDispatch_EmailFailureDoesNotBlockPushAndSSE(t *testing.T) {
	fix := newFixture(t, DispatcherDeps{})
	fix.email.errs = []error{
		&DeliveryError{Channel: "email", StatusCode: 500},
		&DeliveryError{Channel: "email", StatusCode: 500},
		&DeliveryError{Channel: "email", StatusCode: 500},
		&DeliveryError{Channel: "email", StatusCode: 500},
	}

	sub := fix.hub.Subscribe("rest-1")
	fix.dispatcher.Dispatch(reservationEvent(events.EventReservationCreated, ""))
	fix.dispatcher.Wait()

	select {
	case <-sub.Messages():
	default:
		t.Fatal("SSE frame missing despite email failure")
	}
	assert.Equal(t, []string{"https://push.example/ep-1"}, fix.push.deliveredEndpoints())
	assert.Empty(t, fix.email.sentMessages())
}

func TestDispatch_EmailRetriesTransientThenSucceeds(t *testing.T) {
	fix := newFixture(t, DispatcherDeps{})
	fix.email.errs = []error{&DeliveryError{Channel: "email", StatusCode: 503}}

	fix.dispatcher.Dispatch(reservationEvent(events.EventReservationCreated, ""))
	fix.dispatcher.Wait()

	assert.Equal(t, 2, fix.email.attemptCount())
	assert.Len(t, fix.email.sentMessages(), 1)
}

func TestDispatch_EmailTerminalErrorAbortsRetry(t *testing.T) {
	fix := newFixture(t, DispatcherDeps{})
	fix.email.errs = []error{&DeliveryError{Channel: "email", StatusCode: 422}}

	fix.dispatcher.Dispatch(reservationEvent(events.EventReservationCreated, ""))
	fix.dispatcher.Wait()

	assert.Equal(t, 1, fix.email.attemptCount())
}

func TestDispatch_EmailRetryBudgetIsBounded(t *testing.T) {
	fix := newFixture(t, DispatcherDeps{})
	fix.email.errs = []error{
		errors.New("connection refused"),
		errors.New("connection refused"),
		errors.New("connection refused"),
		errors.New("connection refused"),
	}

	fix.dispatcher.Dispatch(reservationEvent(events.EventReservationCreated, ""))
	fix.dispatcher.Wait()

	assert.Equal(t, 3, fix.email.attemptCount())
}

func TestDispatch_GoneEndpointIsPruned(t *testing.T) {
	fix := newFixture(t, DispatcherDeps{})
	fix.push.errs["https://push.example/ep-1"] = ErrEndpointGone

	fix.dispatcher.Dispatch(reservationEvent(events.EventReservationCreated, ""))
	fix.dispatcher.Wait()

	assert.Equal(t, []string{"https://push.example/ep-1"}, fix.pushSubs.pruned)
}

func TestDispatch_PushDisabledByPreference(t *testing.T) {
	pref := domain.DefaultNotificationPreference("staff-1")
	pref.PushEnabled = false
	fix := newFixture(t, DispatcherDeps{Prefs: &fakePrefs{pref: pref}})

	fix.dispatcher.Dispatch(reservationEvent(events.EventReservationCreated, ""))
	fix.dispatcher.Wait()

	assert.Empty(t, fix.push.deliveredEndpoints())
	// Staff email still honors its own flag.
	assert.Len(t, fix.email.sentMessages(), 1)
}

func TestDispatch_EventOptOutSkipsPushAndEmailButNotSSE(t *testing.T) {
	pref := domain.DefaultNotificationPreference("staff-1")
	pref.ReservationCreatedEnabled = false
	fix := newFixture(t, DispatcherDeps{Prefs: &fakePrefs{pref: pref}})

	sub := fix.hub.Subscribe("rest-1")
	fix.dispatcher.Dispatch(reservationEvent(events.EventReservationCreated, ""))
	fix.dispatcher.Wait()

	select {
	case <-sub.Messages():
	default:
		t.Fatal("SSE is operational and must ignore preferences")
	}
	assert.Empty(t, fix.push.deliveredEndpoints())
	assert.Empty(t, fix.email.sentMessages())
}

func TestDispatch_CustomerReceiptIsUnconditional(t *testing.T) {
	pref := domain.DefaultNotificationPreference("staff-1")
	pref.EmailEnabled = false
	pref.PushEnabled = false
	fix := newFixture(t, DispatcherDeps{Prefs: &fakePrefs{pref: pref}})

	fix.dispatcher.Dispatch(reservationEvent(events.EventReservationConfirmed, "ada@example.com"))
	fix.dispatcher.Wait()

	sent := fix.email.sentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "ada@example.com", sent[0].To)
	assert.Contains(t, sent[0].Body, "Ada")
}

func TestDispatch_QuotaThresholdNotifiesStaffOnly(t *testing.T) {
	fix := newFixture(t, DispatcherDeps{})

	fix.dispatcher.Dispatch(events.Event{
		ID:           "ev-q",
		Type:         events.EventQuotaThreshold,
		RestaurantID: "rest-1",
		Timestamp:    time.Now(),
		Payload:      events.QuotaThresholdPayload{Threshold: 80, Current: 80, Limit: 100, Percentage: 80},
	})
	fix.dispatcher.Wait()

	sent := fix.email.sentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "staff@example.com", sent[0].To)
	assert.Contains(t, sent[0].Subject, "80%")
	assert.Contains(t, sent[0].Body, "80 of 100")
}

func TestDispatch_StaffLookupFailureStillEmailsCustomer(t *testing.T) {
	fix := newFixture(t, DispatcherDeps{Staff: &fakeStaff{err: errors.New("db down")}})

	fix.dispatcher.Dispatch(reservationEvent(events.EventReservationCreated, "ada@example.com"))
	fix.dispatcher.Wait()

	sent := fix.email.sentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "ada@example.com", sent[0].To)
}
