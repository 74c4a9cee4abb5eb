// Package lifecycle implements the appointment state machine. An appointment
// is created Active by Book and moves once to Canceled through Cancel.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"gobarber/backend/internal/availability"
	"gobarber/backend/internal/domain"
	"gobarber/backend/internal/store"
	"gobarber/backend/internal/timepolicy"
)

var (
	ErrInvalidProvider           = errors.New("invalid provider")
	ErrPastDate                  = errors.New("past date")
	ErrSlotUnavailable           = errors.New("slot unavailable")
	ErrNotFound                  = errors.New("appointment not found")
	ErrForbidden                 = errors.New("appointment belongs to another client")
	ErrCancellationWindowExpired = errors.New("cancellation window expired")
	ErrAlreadyCanceled           = errors.New("appointment already canceled")
)

type Lifecycle struct {
	policy  *timepolicy.Policy
	checker availability.Checker
}

func New(policy *timepolicy.Policy) *Lifecycle {
	return &Lifecycle{policy: policy}
}

// Book must run inside a transaction that serializes bookings for providerID.
// The returned appointment has Provider loaded.
func (l *Lifecycle) Book(ctx context.Context, tx store.SchedulingTx, clientID, providerID uuid.UUID, requested time.Time) (domain.Appointment, error) {
	provider, err := tx.FindProvider(ctx, providerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Appointment{}, ErrInvalidProvider
		}
		return domain.Appointment{}, err
	}

	slot := timepolicy.NormalizeSlot(requested)
	if l.policy.IsPastOrNow(slot) {
		return domain.Appointment{}, ErrPastDate
	}

	free, err := l.checker.IsSlotFree(ctx, tx, providerID, slot)
	if err != nil {
		return domain.Appointment{}, err
	}
	if !free {
		return domain.Appointment{}, ErrSlotUnavailable
	}

	appt, err := tx.InsertAppointment(ctx, domain.Appointment{
		ClientID:   clientID,
		ProviderID: providerID,
		Slot:       slot,
	})
	if err != nil {
		if errors.Is(err, store.ErrSlotTaken) {
			return domain.Appointment{}, ErrSlotUnavailable
		}
		return domain.Appointment{}, err
	}
	appt.Provider = &provider
	return appt, nil
}

// Cancel moves an Active appointment owned by callerID to Canceled. The
// returned appointment keeps whatever relations the store loaded.
func (l *Lifecycle) Cancel(ctx context.Context, tx store.SchedulingTx, callerID, appointmentID uuid.UUID) (domain.Appointment, error) {
	appt, err := tx.GetAppointmentForUpdate(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Appointment{}, ErrNotFound
		}
		return domain.Appointment{}, err
	}

	if appt.ClientID != callerID {
		return domain.Appointment{}, ErrForbidden
	}
	if appt.State() == domain.AppointmentStateCanceled {
		return domain.Appointment{}, ErrAlreadyCanceled
	}
	if !l.policy.CanCancel(appt.Slot) {
		return domain.Appointment{}, ErrCancellationWindowExpired
	}

	now := l.policy.Now()
	if err := tx.MarkCanceled(ctx, appt.ID, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Appointment{}, ErrAlreadyCanceled
		}
		return domain.Appointment{}, err
	}
	appt.CanceledAt = &now
	appt.UpdatedAt = now
	return appt, nil
}
