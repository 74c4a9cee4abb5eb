// Package timepolicy holds the time rules of scheduling: the canonical
// clock, slot normalization and the cancellation window.
package timepolicy

import (
	"time"

	"gobarber/backend/internal/domain"
)

// CancellationWindow is the minimum lead time a client needs to cancel.
const CancellationWindow = 2 * time.Hour

// SlotLength is the granularity appointments are booked at.
const SlotLength = time.Hour

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always reports the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time {
	return time.Time(c).UTC()
}

// NormalizeSlot rounds t down to the start of its hour, in UTC.
func NormalizeSlot(t time.Time) time.Time {
	return t.UTC().Truncate(SlotLength)
}

type Policy struct {
	clock Clock
}

func New(clock Clock) *Policy {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Policy{clock: clock}
}

func (p *Policy) Now() time.Time {
	return p.clock.Now().UTC()
}

// IsPastOrNow is true when t is not strictly after the current time.
func (p *Policy) IsPastOrNow(t time.Time) bool {
	return !t.After(p.Now())
}

func (p *Policy) IsPast(t time.Time) bool {
	return t.Before(p.Now())
}

// HoursUntil is the signed distance from now to t.
func (p *Policy) HoursUntil(t time.Time) time.Duration {
	return t.Sub(p.Now())
}

// CanCancel requires strictly more than CancellationWindow before slot.
func (p *Policy) CanCancel(slot time.Time) bool {
	return p.HoursUntil(slot) > CancellationWindow
}

// IsCancelable reports whether a is active and still outside the window.
func (p *Policy) IsCancelable(a domain.Appointment) bool {
	return a.IsActive() && p.CanCancel(a.Slot)
}
