package sse

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/reservation-service/internal/events"
)

// Subscription is one dashboard connection's handle on the hub. The owning
// connection handler drains Messages and calls Unsubscribe on disconnect.
type Subscription struct {
	ID           string
	RestaurantID string

	ch   chan []byte
	done chan struct{}
	once sync.Once
}

// Messages returns the frame stream for this subscriber.
func (s *Subscription) Messages() <-chan []byte {
	return s.ch
}

// Done is closed when the subscription is torn down.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Hub is the per-instance subscriber registry and broadcaster. It holds only
// locally connected subscribers and keeps no backlog: a subscriber connecting
// after a broadcast never receives it.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]*Subscription

	queueSize    int
	writeTimeout time.Duration
	logger       *zap.Logger
}

// NewHub builds an empty hub.
func NewHub(queueSize int, writeTimeout time.Duration, logger *zap.Logger) *Hub {
	if queueSize <= 0 {
		queueSize = 16
	}
	if writeTimeout <= 0 {
		writeTimeout = 2 * time.Second
	}
	return &Hub{
		subscribers:  make(map[string]map[string]*Subscription),
		queueSize:    queueSize,
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// Subscribe registers a new connection under its tenant.
func (h *Hub) Subscribe(restaurantID string) *Subscription {
	sub := &Subscription{
		ID:           uuid.NewString(),
		RestaurantID: restaurantID,
		ch:           make(chan []byte, h.queueSize),
		done:         make(chan struct{}),
	}

	h.mu.Lock()
	tenant, ok := h.subscribers[restaurantID]
	if !ok {
		tenant = make(map[string]*Subscription)
		h.subscribers[restaurantID] = tenant
	}
	tenant[sub.ID] = sub
	h.mu.Unlock()

	h.logger.Debug("sse subscribe",
		zap.String("restaurant_id", restaurantID),
		zap.String("subscription_id", sub.ID))
	return sub
}

// Unsubscribe removes the connection. Idempotent; safe during a broadcast.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	if tenant, ok := h.subscribers[sub.RestaurantID]; ok {
		delete(tenant, sub.ID)
		if len(tenant) == 0 {
			delete(h.subscribers, sub.RestaurantID)
		}
	}
	h.mu.Unlock()

	sub.once.Do(func() { close(sub.done) })
}

// Broadcast delivers the event to every subscriber of the tenant, and only
// that tenant. Delivery iterates a snapshot so concurrent disconnects cannot
// corrupt iteration; a subscriber that fails to accept the frame within the
// write timeout is reaped without blocking delivery to siblings.
func (h *Hub) Broadcast(restaurantID string, event events.Event) {
	frame, err := encodeFrame(event)
	if err != nil {
		h.logger.Error("sse encode frame", zap.Error(err))
		return
	}

	h.mu.RLock()
	snapshot := make([]*Subscription, 0, len(h.subscribers[restaurantID]))
	for _, sub := range h.subscribers[restaurantID] {
		snapshot = append(snapshot, sub)
	}
	h.mu.RUnlock()

	for _, sub := range snapshot {
		h.deliver(sub, frame)
	}
}

func (h *Hub) deliver(sub *Subscription, frame []byte) {
	timer := time.NewTimer(h.writeTimeout)
	defer timer.Stop()

	select {
	case sub.ch <- frame:
	case <-sub.done:
	case <-timer.C:
		h.logger.Warn("sse subscriber stalled, reaping",
			zap.String("restaurant_id", sub.RestaurantID),
			zap.String("subscription_id", sub.ID))
		h.Unsubscribe(sub)
	}
}

// SubscriberCount reports the live subscriber total for a tenant.
func (h *Hub) SubscriberCount(restaurantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[restaurantID])
}

// encodeFrame renders one text/event-stream frame for a domain event.
func encodeFrame(event events.Event) ([]byte, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, body)), nil
}

// KeepAliveFrame is the comment frame written periodically so intermediaries
// keep the connection open and dead peers surface as write errors.
var KeepAliveFrame = []byte(": keep-alive\n\n")
