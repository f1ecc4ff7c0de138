package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/reservation-service/internal/domain"
	"github.com/spec-kit/reservation-service/internal/events"
	"github.com/spec-kit/reservation-service/internal/observability"
	"github.com/spec-kit/reservation-service/internal/sse"
)

// dispatchTimeout bounds the lifetime of one detached fan-out.
const dispatchTimeout = 30 * time.Second

// StaffDirectory resolves the tenant's staff recipients.
type StaffDirectory interface {
	ListByRestaurant(ctx context.Context, restaurantID string) ([]*domain.StaffMember, error)
}

// PreferenceSource returns a user's delivery opt-ins, lazily created.
type PreferenceSource interface {
	Get(ctx context.Context, userID string) (*domain.NotificationPreference, error)
}

// PushSubscriptionStore lists and prunes device endpoints.
type PushSubscriptionStore interface {
	ListByUser(ctx context.Context, userID string) ([]*domain.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}

// RestaurantSource resolves tenant display data for message rendering.
type RestaurantSource interface {
	GetByID(ctx context.Context, id string) (*domain.Restaurant, error)
}

// Dispatcher fans a committed domain event out to SSE, push and email.
// Dispatch is fire-and-forget: channel failures are logged and counted, never
// surfaced, so the triggering business outcome can never be corrupted by an
// advisory side effect.
type Dispatcher struct {
	hub         *sse.Hub
	staff       StaffDirectory
	prefs       PreferenceSource
	pushSubs    PushSubscriptionStore
	restaurants RestaurantSource
	email       EmailSender
	push        PushSender
	logger      *zap.Logger
	metrics     *observability.Metrics

	emailMaxAttempts int
	emailBackoff     time.Duration

	wg sync.WaitGroup
}

// DispatcherDeps bundles collaborator requirements.
type DispatcherDeps struct {
	Hub         *sse.Hub
	Staff       StaffDirectory
	Prefs       PreferenceSource
	PushSubs    PushSubscriptionStore
	Restaurants RestaurantSource
	Email       EmailSender
	Push        PushSender
	Logger      *zap.Logger
	Metrics     *observability.Metrics

	EmailMaxAttempts int
	EmailBackoff     time.Duration
}

// NewDispatcher builds the dispatcher.
func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	attempts := deps.EmailMaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := deps.EmailBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &Dispatcher{
		hub:              deps.Hub,
		staff:            deps.Staff,
		prefs:            deps.Prefs,
		pushSubs:         deps.PushSubs,
		restaurants:      deps.Restaurants,
		email:            deps.Email,
		push:             deps.Push,
		logger:           deps.Logger,
		metrics:          deps.Metrics,
		emailMaxAttempts: attempts,
		emailBackoff:     backoff,
	}
}

// Dispatch spawns the detached fan-out task. The caller must only invoke it
// after the triggering transaction has committed; nothing here can fail the
// request that produced the event.
func (d *Dispatcher) Dispatch(event events.Event) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("dispatch panic", zap.Any("panic", r), zap.String("event_id", event.ID))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		d.run(ctx, event)
	}()
}

// Wait blocks until in-flight dispatches drain. Used at shutdown and in tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context, event events.Event) {
	// Dashboard stream is operational, never preference-gated.
	d.hub.Broadcast(event.RestaurantID, event)
	d.metrics.RecordDelivery("sse", string(event.Type), true)

	restaurantName := d.restaurantName(ctx, event.RestaurantID)

	var wg sync.WaitGroup

	if staff, err := d.staff.ListByRestaurant(ctx, event.RestaurantID); err != nil {
		d.logger.Warn("resolve staff recipients", zap.String("restaurant_id", event.RestaurantID), zap.Error(err))
	} else {
		for _, member := range staff {
			member := member
			wg.Add(1)
			go func() {
				defer wg.Done()
				d.notifyStaff(ctx, event, member, restaurantName)
			}()
		}
	}

	if to, ok := customerRecipient(event); ok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.emailCustomer(ctx, event, to, restaurantName)
		}()
	}

	wg.Wait()
}

func (d *Dispatcher) notifyStaff(ctx context.Context, event events.Event, member *domain.StaffMember, restaurantName string) {
	pref, err := d.prefs.Get(ctx, member.ID)
	if err != nil {
		d.logger.Warn("load preferences", zap.String("staff_id", member.ID), zap.Error(err))
		return
	}

	var wg sync.WaitGroup
	if pref.PushEnabled && eventOptedIn(pref, event.Type) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.pushToDevices(ctx, event, member.ID, restaurantName)
		}()
	}
	if template, ok := staffEmailTemplates[event.Type]; ok && pref.EmailEnabled && eventOptedIn(pref, event.Type) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			subject, body := template.render(templateVars(event, restaurantName))
			d.sendEmail(ctx, event, EmailMessage{To: member.Email, Subject: subject, Body: body})
		}()
	}
	wg.Wait()
}

func (d *Dispatcher) pushToDevices(ctx context.Context, event events.Event, userID, restaurantName string) {
	subs, err := d.pushSubs.ListByUser(ctx, userID)
	if err != nil {
		d.logger.Warn("list push subscriptions", zap.String("user_id", userID), zap.Error(err))
		return
	}

	payload := buildPushPayload(event, restaurantName)
	for _, sub := range subs {
		err := d.push.Send(ctx, sub.Endpoint, payload)
		switch {
		case err == nil:
			d.metrics.RecordDelivery("push", string(event.Type), true)
		case errors.Is(err, ErrEndpointGone):
			d.metrics.RecordDelivery("push", string(event.Type), false)
			if pruneErr := d.pushSubs.DeleteByEndpoint(ctx, sub.Endpoint); pruneErr != nil {
				d.logger.Warn("prune push endpoint", zap.String("endpoint", sub.Endpoint), zap.Error(pruneErr))
			} else {
				d.logger.Info("pruned gone push endpoint", zap.String("user_id", userID))
			}
		default:
			d.metrics.RecordDelivery("push", string(event.Type), false)
			d.logger.Warn("push delivery failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
}

func (d *Dispatcher) emailCustomer(ctx context.Context, event events.Event, to, restaurantName string) {
	template, ok := customerEmailTemplates[event.Type]
	if !ok {
		return
	}
	subject, body := template.render(templateVars(event, restaurantName))
	d.sendEmail(ctx, event, EmailMessage{To: to, Subject: subject, Body: body})
}

// sendEmail applies the bounded retry policy: terminal provider rejections
// (4xx) abort immediately, transient failures back off exponentially until
// the attempt budget is spent. The outcome is logged and counted only.
func (d *Dispatcher) sendEmail(ctx context.Context, event events.Event, msg EmailMessage) {
	backoff := d.emailBackoff
	var lastErr error

	for attempt := 1; attempt <= d.emailMaxAttempts; attempt++ {
		lastErr = d.email.Send(ctx, msg)
		if lastErr == nil {
			d.metrics.RecordDelivery("email", string(event.Type), true)
			return
		}

		var deliveryErr *DeliveryError
		if errors.As(lastErr, &deliveryErr) && deliveryErr.Terminal() {
			break
		}
		if attempt == d.emailMaxAttempts {
			break
		}

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			lastErr = ctx.Err()
			attempt = d.emailMaxAttempts
		}
	}

	d.metrics.RecordDelivery("email", string(event.Type), false)
	d.logger.Warn("email delivery failed",
		zap.String("event_id", event.ID),
		zap.String("to", msg.To),
		zap.Error(lastErr))
}

func (d *Dispatcher) restaurantName(ctx context.Context, restaurantID string) string {
	restaurant, err := d.restaurants.GetByID(ctx, restaurantID)
	if err != nil {
		d.logger.Warn("resolve restaurant", zap.String("restaurant_id", restaurantID), zap.Error(err))
		return "your restaurant"
	}
	return restaurant.Name
}

// customerRecipient extracts the transactional recipient for event kinds that
// carry one.
func customerRecipient(event events.Event) (string, bool) {
	payload, ok := event.Payload.(events.ReservationPayload)
	if !ok || payload.CustomerEmail == "" {
		return "", false
	}
	return payload.CustomerEmail, true
}

// eventOptedIn maps an event type to its preference flag. Quota alerts are
// operational and gated only by the channel flags.
func eventOptedIn(pref *domain.NotificationPreference, eventType events.EventType) bool {
	switch eventType {
	case events.EventReservationCreated:
		return pref.ReservationCreatedEnabled
	case events.EventReservationConfirmed:
		return pref.ReservationConfirmedEnabled
	case events.EventReservationCancelled:
		return pref.ReservationCancelledEnabled
	case events.EventReservationUpdated:
		return pref.ReservationUpdatedEnabled
	case events.EventQuotaThreshold:
		return true
	default:
		return false
	}
}

func buildPushPayload(event events.Event, restaurantName string) PushPayload {
	data := map[string]string{"type": string(event.Type)}
	payload := PushPayload{Icon: "/icons/reservation.png", Badge: "/icons/badge.png", Data: data}

	switch body := event.Payload.(type) {
	case events.ReservationPayload:
		data["reservationId"] = body.ReservationID
		data["url"] = "/dashboard/reservations/" + body.ReservationID
		payload.Tag = "reservation-" + body.ReservationID
		payload.Title = pushTitle(event.Type, restaurantName)
		payload.Body = fmt.Sprintf("%s, party of %d, %s",
			body.CustomerName, body.PartySize, body.StartsAt.Format("Jan 2 15:04"))
	case events.QuotaThresholdPayload:
		data["url"] = "/dashboard/billing"
		payload.Tag = "quota-" + strconv.Itoa(body.Threshold)
		payload.Title = fmt.Sprintf("Quota alert: %d%% used", body.Threshold)
		payload.Body = fmt.Sprintf("%s has used %d of %d reservations this month.",
			restaurantName, body.Current, body.Limit)
	default:
		payload.Title = restaurantName
		payload.Body = string(event.Type)
	}
	return payload
}

func pushTitle(eventType events.EventType, restaurantName string) string {
	switch eventType {
	case events.EventReservationCreated:
		return "New reservation at " + restaurantName
	case events.EventReservationConfirmed:
		return "Reservation confirmed at " + restaurantName
	case events.EventReservationCancelled:
		return "Reservation cancelled at " + restaurantName
	case events.EventReservationUpdated:
		return "Reservation updated at " + restaurantName
	default:
		return restaurantName
	}
}

func templateVars(event events.Event, restaurantName string) map[string]string {
	vars := map[string]string{"restaurant": restaurantName}
	switch payload := event.Payload.(type) {
	case events.ReservationPayload:
		vars["customer"] = payload.CustomerName
		vars["party_size"] = strconv.Itoa(payload.PartySize)
		vars["starts_at"] = payload.StartsAt.Format("Monday, Jan 2 at 15:04")
		vars["cancel_url"] = payload.CancelURL
	case events.QuotaThresholdPayload:
		vars["percentage"] = strconv.Itoa(payload.Percentage)
		vars["threshold"] = strconv.Itoa(payload.Threshold)
		vars["current"] = strconv.FormatInt(payload.Current, 10)
		vars["limit"] = strconv.FormatInt(payload.Limit, 10)
	}
	return vars
}
