package dto

// PreferenceUpdateRequest is a partial update; omitted fields keep their
// stored values.
type PreferenceUpdateRequest struct {
	PushEnabled                 *bool `json:"push_enabled,omitempty"`
	EmailEnabled                *bool `json:"email_enabled,omitempty"`
	ReservationCreatedEnabled   *bool `json:"reservation_created_enabled,omitempty"`
	ReservationConfirmedEnabled *bool `json:"reservation_confirmed_enabled,omitempty"`
	ReservationCancelledEnabled *bool `json:"reservation_cancelled_enabled,omitempty"`
	ReservationUpdatedEnabled   *bool `json:"reservation_updated_enabled,omitempty"`
}

// PreferenceResponse standard preference representation.
type PreferenceResponse struct {
	PushEnabled                 bool `json:"push_enabled"`
	EmailEnabled                bool `json:"email_enabled"`
	ReservationCreatedEnabled   bool `json:"reservation_created_enabled"`
	ReservationConfirmedEnabled bool `json:"reservation_confirmed_enabled"`
	ReservationCancelledEnabled bool `json:"reservation_cancelled_enabled"`
	ReservationUpdatedEnabled   bool `json:"reservation_updated_enabled"`
}

// PushSubscriptionRequest registers a device endpoint.
type PushSubscriptionRequest struct {
	Endpoint   string `json:"endpoint"`
	Keys       string `json:"keys,omitempty"`
	DeviceInfo string `json:"device_info,omitempty"`
}

// PushSubscriptionDeleteRequest removes a device endpoint.
type PushSubscriptionDeleteRequest struct {
	Endpoint string `json:"endpoint"`
}
