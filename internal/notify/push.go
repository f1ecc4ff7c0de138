package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/spec-kit/reservation-service/internal/config"
)

// HTTPPushSender posts payloads to a push gateway which relays them to the
// device endpoint named in the request.
type HTTPPushSender struct {
	client *http.Client
	url    string
}

// NewHTTPPushSender builds the sender from notification config.
func NewHTTPPushSender(cfg config.NotificationConfig) *HTTPPushSender {
	return &HTTPPushSender{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    cfg.PushProviderURL,
	}
}

type pushRequest struct {
	Endpoint string      `json:"endpoint"`
	Payload  PushPayload `json:"payload"`
}

// Send delivers to one endpoint. A 404/410 reply means the endpoint is gone
// and should be pruned.
func (s *HTTPPushSender) Send(ctx context.Context, endpoint string, payload PushPayload) error {
	body, err := json.Marshal(pushRequest{Endpoint: endpoint, Payload: payload})
	if err != nil {
		return &DeliveryError{Channel: "push", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{Channel: "push", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return &DeliveryError{Channel: "push", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrEndpointGone
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &DeliveryError{Channel: "push", StatusCode: resp.StatusCode}
	}
	return nil
}
