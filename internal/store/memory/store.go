// Package memory is an in-process store.AppointmentRepository. Transactions
// are serialized by a single mutex and staged on a copy, so a failing
// callback leaves no trace. It enforces the same active (provider, slot)
// uniqueness as the postgres schema.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"gobarber/backend/internal/domain"
	"gobarber/backend/internal/store"
)

type Store struct {
	mu    sync.Mutex
	users map[uuid.UUID]domain.User
	appts map[uuid.UUID]domain.Appointment
}

func New() *Store {
	return &Store{
		users: make(map[uuid.UUID]domain.User),
		appts: make(map[uuid.UUID]domain.Appointment),
	}
}

func (s *Store) PutUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// PutAppointment stores a as-is, bypassing the lifecycle. Useful to seed history.
func (s *Store) PutAppointment(a domain.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.Provider, a.Client = nil, nil
	s.appts[a.ID] = a
}

func (s *Store) Appointment(id uuid.UUID) (domain.Appointment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appts[id]
	return a, ok
}

func (s *Store) InProviderTransaction(ctx context.Context, providerID uuid.UUID, fn func(ctx context.Context, tx store.SchedulingTx) error) error {
	return s.InTransaction(ctx, fn)
}

func (s *Store) InTransaction(ctx context.Context, fn func(ctx context.Context, tx store.SchedulingTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	staged := make(map[uuid.UUID]domain.Appointment, len(s.appts))
	for id, a := range s.appts {
		staged[id] = a
	}
	t := &tx{users: s.users, appts: staged}
	if err := fn(ctx, t); err != nil {
		return err
	}
	s.appts = staged
	return nil
}

func (s *Store) ListActiveByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]domain.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []domain.Appointment
	for _, a := range s.appts {
		if a.ClientID != clientID || a.CanceledAt != nil {
			continue
		}
		if p, ok := s.users[a.ProviderID]; ok {
			a.Provider = &p
		}
		rows = append(rows, a)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Slot.Equal(rows[j].Slot) {
			return rows[i].ID.String() < rows[j].ID.String()
		}
		return rows[i].Slot.Before(rows[j].Slot)
	})

	if offset >= len(rows) {
		return []domain.Appointment{}, nil
	}
	rows = rows[offset:]
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *Store) FindUser(ctx context.Context, userID uuid.UUID) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

type tx struct {
	users map[uuid.UUID]domain.User
	appts map[uuid.UUID]domain.Appointment
}

func (t *tx) FindProvider(ctx context.Context, providerID uuid.UUID) (domain.User, error) {
	u, ok := t.users[providerID]
	if !ok || !u.Provider {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (t *tx) ActiveAppointmentExists(ctx context.Context, providerID uuid.UUID, slot time.Time) (bool, error) {
	for _, a := range t.appts {
		if a.ProviderID == providerID && a.CanceledAt == nil && a.Slot.Equal(slot) {
			return true, nil
		}
	}
	return false, nil
}

func (t *tx) InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	taken, _ := t.ActiveAppointmentExists(ctx, appt.ProviderID, appt.Slot)
	if taken {
		return domain.Appointment{}, store.ErrSlotTaken
	}
	if appt.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.Appointment{}, err
		}
		appt.ID = id
	}
	now := time.Now().UTC()
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = now
	}
	if appt.UpdatedAt.IsZero() {
		appt.UpdatedAt = now
	}
	appt.Slot = appt.Slot.UTC()
	appt.Provider, appt.Client = nil, nil
	t.appts[appt.ID] = appt
	return appt, nil
}

func (t *tx) GetAppointmentForUpdate(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, error) {
	a, ok := t.appts[appointmentID]
	if !ok {
		return domain.Appointment{}, store.ErrNotFound
	}
	if p, ok := t.users[a.ProviderID]; ok {
		a.Provider = &p
	}
	if c, ok := t.users[a.ClientID]; ok {
		a.Client = &c
	}
	return a, nil
}

func (t *tx) MarkCanceled(ctx context.Context, appointmentID uuid.UUID, at time.Time) error {
	a, ok := t.appts[appointmentID]
	if !ok || a.CanceledAt != nil {
		return store.ErrNotFound
	}
	at = at.UTC()
	a.CanceledAt = &at
	a.UpdatedAt = at
	t.appts[appointmentID] = a
	return nil
}
