package worker

import (
	"context"

	"github.com/spec-kit/reservation-service/internal/events"
	"github.com/spec-kit/reservation-service/internal/notify"
)

// StartNotificationWorker wires the fan-out pipeline onto the event bus.
// Every domain event is handed to the notify dispatcher, which detaches
// delivery from the publishing request.
func StartNotificationWorker(bus events.Dispatcher, dispatcher *notify.Dispatcher) {
	if bus == nil || dispatcher == nil {
		return
	}

	handler := func(_ context.Context, event events.Event) error {
		dispatcher.Dispatch(event)
		return nil
	}

	for _, eventType := range []events.EventType{
		events.EventReservationCreated,
		events.EventReservationConfirmed,
		events.EventReservationCancelled,
		events.EventReservationUpdated,
		events.EventQuotaThreshold,
	} {
		bus.Subscribe(eventType, handler)
	}
}
