package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/reservation-service/internal/domain"
	"github.com/spec-kit/reservation-service/internal/events"
	"github.com/spec-kit/reservation-service/internal/quota"
	"github.com/spec-kit/reservation-service/internal/repository"
	"github.com/spec-kit/reservation-service/internal/token"
	apperrors "github.com/spec-kit/reservation-service/pkg/util/errorutil"
)

// ReservationService coordinates the admission-gated reservation flow. It
// owns the ordering guarantee: events are published only after the
// reservation row is durably written.
type ReservationService struct {
	reservations repository.ReservationRepository
	quota        *quota.Tracker
	tokens       *token.Service
	dispatcher   events.Dispatcher
	baseURL      string
}

// ReservationDependencies bundles collaborators for the service.
type ReservationDependencies struct {
	ReservationRepo repository.ReservationRepository
	Quota           *quota.Tracker
	Tokens          *token.Service
	Dispatcher      events.Dispatcher
	PublicBaseURL   string
}

// NewReservationService builds the service.
func NewReservationService(deps ReservationDependencies) *ReservationService {
	return &ReservationService{
		reservations: deps.ReservationRepo,
		quota:        deps.Quota,
		tokens:       deps.Tokens,
		dispatcher:   deps.Dispatcher,
		baseURL:      deps.PublicBaseURL,
	}
}

// ReservationCreateInput describes the reservation creation payload.
type ReservationCreateInput struct {
	CustomerName  string
	CustomerEmail string
	PartySize     int
	StartsAt      time.Time
	Notes         string
}

func (in ReservationCreateInput) validate() error {
	if in.CustomerName == "" {
		return apperrors.NewValidationError("customer_name required", nil)
	}
	if in.PartySize <= 0 {
		return apperrors.NewValidationError("party_size must be positive", nil)
	}
	if in.StartsAt.IsZero() {
		return apperrors.NewValidationError("starts_at required", nil)
	}
	return nil
}

// Create admits the reservation against the tenant quota, persists it and
// publishes reservation_created. A quota refusal carries the upgrade detail
// for the 403 body; storage failures abort before any event is produced.
func (s *ReservationService) Create(ctx context.Context, restaurantID string, input ReservationCreateInput) (*domain.Reservation, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	admission, err := s.quota.Admit(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if !admission.Admitted {
		return nil, apperrors.NewQuotaExceeded(admission.Current, admission.Limit, string(admission.Plan))
	}

	reservation := &domain.Reservation{
		RestaurantID:  restaurantID,
		CustomerName:  input.CustomerName,
		CustomerEmail: input.CustomerEmail,
		PartySize:     input.PartySize,
		StartsAt:      input.StartsAt,
		Status:        domain.ReservationStatusPending,
		Notes:         input.Notes,
	}
	if err := s.reservations.Create(ctx, reservation); err != nil {
		return nil, err
	}

	payload := events.NewReservationPayload(reservation)
	if url, tokenErr := s.cancelURL(reservation); tokenErr == nil {
		payload.CancelURL = url
	}
	s.publish(ctx, events.EventReservationCreated, restaurantID, payload)
	return reservation, nil
}

// Confirm moves a pending reservation to confirmed and publishes the event.
func (s *ReservationService) Confirm(ctx context.Context, id string) (*domain.Reservation, error) {
	reservation, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation.Status == domain.ReservationStatusCancelled {
		return nil, apperrors.NewConflict("reservation already cancelled", nil)
	}

	if err := s.reservations.UpdateStatus(ctx, id, domain.ReservationStatusConfirmed); err != nil {
		return nil, err
	}
	reservation.Status = domain.ReservationStatusConfirmed

	s.publish(ctx, events.EventReservationConfirmed, reservation.RestaurantID, events.NewReservationPayload(reservation))
	return reservation, nil
}

// CancelByToken validates a reservation-cancel token and cancels the
// reservation it names. The token binds both the reservation and its tenant;
// a mismatch between the two is treated as an invalid token, not a lookup
// miss.
func (s *ReservationService) CancelByToken(ctx context.Context, tokenStr string) (*domain.Reservation, error) {
	claims, err := s.tokens.Validate(tokenStr, token.KindReservationCancel)
	if err != nil {
		return nil, apperrors.NewUnauthorized(err.Error())
	}

	reservation, err := s.reservations.GetByID(ctx, claims.SubjectID)
	if err != nil {
		return nil, err
	}
	if reservation.RestaurantID != claims.SecondarySubjectID {
		return nil, apperrors.NewUnauthorized("Invalid token")
	}
	return s.cancel(ctx, reservation)
}

// CancelByStaff cancels on behalf of the restaurant.
func (s *ReservationService) CancelByStaff(ctx context.Context, id string) (*domain.Reservation, error) {
	reservation, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.cancel(ctx, reservation)
}

// CancelToken issues a fresh cancellation token for a reservation.
func (s *ReservationService) CancelToken(reservation *domain.Reservation) (string, time.Time, error) {
	return s.tokens.Issue(token.KindReservationCancel, reservation.ID, reservation.RestaurantID)
}

func (s *ReservationService) cancel(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error) {
	if reservation.Status == domain.ReservationStatusCancelled {
		return nil, apperrors.NewConflict("reservation already cancelled", nil)
	}

	if err := s.reservations.Cancel(ctx, reservation.ID); err != nil {
		return nil, err
	}
	reservation.Status = domain.ReservationStatusCancelled

	s.publish(ctx, events.EventReservationCancelled, reservation.RestaurantID, events.NewReservationPayload(reservation))
	return reservation, nil
}

func (s *ReservationService) cancelURL(reservation *domain.Reservation) (string, error) {
	signed, _, err := s.tokens.Issue(token.KindReservationCancel, reservation.ID, reservation.RestaurantID)
	if err != nil {
		return "", err
	}
	return s.baseURL + "/reservations/cancel?token=" + signed, nil
}

func (s *ReservationService) publish(ctx context.Context, eventType events.EventType, restaurantID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:           uuid.NewString(),
		Type:         eventType,
		RestaurantID: restaurantID,
		Timestamp:    time.Now(),
		Payload:      payload,
	})
}
