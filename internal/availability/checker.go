// Package availability decides whether a provider can still be booked at a slot.
package availability

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gobarber/backend/internal/timepolicy"
)

// ActiveSet is the part of a scheduling transaction the checker reads.
type ActiveSet interface {
	ActiveAppointmentExists(ctx context.Context, providerID uuid.UUID, slot time.Time) (bool, error)
}

// Checker must be called with the ActiveSet of the same transaction that
// will insert the booking, otherwise its answer can be stale on return.
type Checker struct{}

func (Checker) IsSlotFree(ctx context.Context, set ActiveSet, providerID uuid.UUID, slot time.Time) (bool, error) {
	taken, err := set.ActiveAppointmentExists(ctx, providerID, timepolicy.NormalizeSlot(slot))
	if err != nil {
		return false, err
	}
	return !taken, nil
}
