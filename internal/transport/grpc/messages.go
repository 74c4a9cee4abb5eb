package grpc

import "time"

type Appointment struct {
	ID         string     `json:"id"`
	Date       time.Time  `json:"date"`
	ClientID   string     `json:"client_id"`
	ProviderID string     `json:"provider_id"`
	Provider   *Provider  `json:"provider,omitempty"`
	CanceledAt *time.Time `json:"canceled_at,omitempty"`
	Past       bool       `json:"past"`
	Cancelable bool       `json:"cancelable"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type Provider struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ListAppointmentsRequest struct {
	Page int `json:"page"`
}

type ListAppointmentsResponse struct {
	Appointments []*Appointment `json:"appointments"`
}

type CreateAppointmentRequest struct {
	ProviderID string `json:"provider_id"`
	// Date is RFC 3339, e.g. "2025-03-10T14:00:00Z".
	Date string `json:"date"`
}

type CreateAppointmentResponse struct {
	Appointment *Appointment `json:"appointment"`
}

type CancelAppointmentRequest struct {
	AppointmentID string `json:"appointment_id"`
}

type CancelAppointmentResponse struct {
	Appointment *Appointment `json:"appointment"`
}
