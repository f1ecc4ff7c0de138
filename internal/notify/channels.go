package notify

import (
	"context"
	"errors"
	"fmt"
)

// DeliveryError wraps a provider failure. It never crosses the dispatcher
// boundary; the status code decides whether a retry is worthwhile.
type DeliveryError struct {
	Channel    string
	StatusCode int
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s delivery failed (status %d): %v", e.Channel, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s delivery failed (status %d)", e.Channel, e.StatusCode)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Terminal reports whether retrying cannot help (provider rejected the
// request itself, 4xx range).
func (e *DeliveryError) Terminal() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// ErrEndpointGone signals the provider no longer recognizes a device
// endpoint; the caller prunes it from storage.
var ErrEndpointGone = errors.New("push endpoint gone")

// EmailMessage is a rendered transactional email.
type EmailMessage struct {
	To      string
	Subject string
	Body    string
}

// EmailSender delivers one rendered email.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// PushPayload is the per-device notification body.
type PushPayload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Icon  string            `json:"icon,omitempty"`
	Badge string            `json:"badge,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
	Tag   string            `json:"tag,omitempty"`
}

// PushSender delivers a payload to one device endpoint.
type PushSender interface {
	Send(ctx context.Context, endpoint string, payload PushPayload) error
}
