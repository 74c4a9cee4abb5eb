package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type AppointmentState string

const (
	AppointmentStateActive   AppointmentState = "active"
	AppointmentStateCanceled AppointmentState = "canceled"
)

type Appointment struct {
	bun.BaseModel `bun:"table:appointments,alias:appointment"`

	ID         uuid.UUID  `bun:"id,pk,type:uuid"`
	ClientID   uuid.UUID  `bun:"client_id,type:uuid,notnull"`
	ProviderID uuid.UUID  `bun:"provider_id,type:uuid,notnull"`
	Slot       time.Time  `bun:"slot,notnull"`
	CanceledAt *time.Time `bun:"canceled_at"`
	CreatedAt  time.Time  `bun:"created_at,notnull"`
	UpdatedAt  time.Time  `bun:"updated_at,notnull"`

	Provider *User `bun:"rel:belongs-to,join:provider_id=id"`
	Client   *User `bun:"rel:belongs-to,join:client_id=id"`
}

// State reports the lifecycle state. Canceled is terminal.
func (a Appointment) State() AppointmentState {
	if a.CanceledAt != nil {
		return AppointmentStateCanceled
	}
	return AppointmentStateActive
}

func (a Appointment) IsActive() bool {
	return a.State() == AppointmentStateActive
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			a.ID = id
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}
