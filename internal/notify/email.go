package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/spec-kit/reservation-service/internal/config"
	"github.com/spec-kit/reservation-service/internal/events"
)

// HTTPEmailSender posts rendered emails to a transactional provider API.
type HTTPEmailSender struct {
	client *http.Client
	url    string
	apiKey string
	from   string
}

// NewHTTPEmailSender builds the sender from notification config.
func NewHTTPEmailSender(cfg config.NotificationConfig) *HTTPEmailSender {
	return &HTTPEmailSender{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    cfg.EmailProviderURL,
		apiKey: cfg.EmailAPIKey,
		from:   cfg.EmailFrom,
	}
}

type emailRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Send performs one provider call; retry policy lives with the caller.
func (s *HTTPEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	payload, err := json.Marshal(emailRequest{
		From:    s.from,
		To:      msg.To,
		Subject: msg.Subject,
		Body:    msg.Body,
	})
	if err != nil {
		return &DeliveryError{Channel: "email", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return &DeliveryError{Channel: "email", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return &DeliveryError{Channel: "email", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &DeliveryError{Channel: "email", StatusCode: resp.StatusCode}
	}
	return nil
}

// emailTemplate renders subject and body with named-variable substitution.
type emailTemplate struct {
	Subject string
	Body    string
}

func (t emailTemplate) render(vars map[string]string) (string, string) {
	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{{"+name+"}}", value)
	}
	replacer := strings.NewReplacer(pairs...)
	return replacer.Replace(t.Subject), replacer.Replace(t.Body)
}

// staffEmailTemplates gate staff email delivery: no template, no email.
var staffEmailTemplates = map[events.EventType]emailTemplate{
	events.EventReservationCreated: {
		Subject: "New reservation at {{restaurant}}",
		Body:    "{{customer}} booked a table for {{party_size}} on {{starts_at}}.",
	},
	events.EventReservationCancelled: {
		Subject: "Reservation cancelled at {{restaurant}}",
		Body:    "The reservation for {{customer}} on {{starts_at}} was cancelled.",
	},
	events.EventQuotaThreshold: {
		Subject: "Reservation quota at {{percentage}}%",
		Body:    "{{restaurant}} has used {{current}} of {{limit}} reservations this month.",
	},
}

// customerEmailTemplates are transactional receipts, sent regardless of
// preference flags.
var customerEmailTemplates = map[events.EventType]emailTemplate{
	events.EventReservationCreated: {
		Subject: "Your reservation request",
		Body:    "Hi {{customer}}, we received your reservation for {{party_size}} on {{starts_at}}. Cancel any time: {{cancel_url}}",
	},
	events.EventReservationConfirmed: {
		Subject: "Your reservation is confirmed",
		Body:    "Hi {{customer}}, your reservation for {{party_size}} on {{starts_at}} is confirmed.",
	},
	events.EventReservationCancelled: {
		Subject: "Your reservation was cancelled",
		Body:    "Hi {{customer}}, your reservation on {{starts_at}} has been cancelled.",
	},
}
