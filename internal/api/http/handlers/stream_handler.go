package handlers

import (
	"bufio"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/spec-kit/reservation-service/internal/sse"
)

// StreamHandler serves the per-restaurant SSE feed.
type StreamHandler struct {
	hub       *sse.Hub
	keepAlive time.Duration
	logger    *zap.Logger
}

// NewStreamHandler constructs handler.
func NewStreamHandler(hub *sse.Hub, keepAlive time.Duration, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{hub: hub, keepAlive: keepAlive, logger: logger}
}

// Stream handles GET /restaurants/:restaurantID/stream. Subscribers see
// events published after they attach; there is no replay of history. The
// keep-alive comment doubles as liveness probing: a dead peer turns the next
// write into an error and the subscription is dropped.
func (h *StreamHandler) Stream(c *fiber.Ctx) error {
	restaurantID := c.Params("restaurantID")
	sub := h.hub.Subscribe(restaurantID)
	h.logger.Debug("sse subscriber attached",
		zap.String("restaurant_id", restaurantID),
		zap.String("subscription_id", sub.ID))

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer h.hub.Unsubscribe(sub)

		ticker := time.NewTicker(h.keepAlive)
		defer ticker.Stop()

		if _, err := w.WriteString(": connected\n\n"); err != nil {
			return
		}
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case frame := <-sub.Messages():
				if _, err := w.Write(frame); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := w.Write(sse.KeepAliveFrame); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			case <-sub.Done():
				return
			}
		}
	}))
	return nil
}
