package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// CancellationJob carries everything the mail worker needs to tell a
// provider about a cancellation without reading the database again.
type CancellationJob struct {
	Appointment AppointmentSnapshot `json:"appointment"`
	Provider    Party               `json:"provider"`
	Client      Party               `json:"client"`
}

type AppointmentSnapshot struct {
	ID         uuid.UUID `json:"id"`
	Slot       time.Time `json:"slot"`
	CanceledAt time.Time `json:"canceled_at"`
}

type Party struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email,omitempty"`
}

// NewCancellationJob requires a canceled appointment with Provider and Client loaded.
func NewCancellationJob(a Appointment) (CancellationJob, error) {
	if a.CanceledAt == nil {
		return CancellationJob{}, errors.New("appointment is not canceled")
	}
	if a.Provider == nil || a.Client == nil {
		return CancellationJob{}, errors.New("appointment parties not loaded")
	}
	return CancellationJob{
		Appointment: AppointmentSnapshot{
			ID:         a.ID,
			Slot:       a.Slot.UTC(),
			CanceledAt: a.CanceledAt.UTC(),
		},
		Provider: Party{ID: a.Provider.ID, Name: a.Provider.Name, Email: a.Provider.Email},
		Client:   Party{ID: a.Client.ID, Name: a.Client.Name},
	}, nil
}
