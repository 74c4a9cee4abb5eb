package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"gobarber/backend/internal/domain"
	"gobarber/backend/internal/store"
	"gobarber/backend/internal/timepolicy"
)

type fakeTx struct {
	findProviderFn func(ctx context.Context, providerID uuid.UUID) (domain.User, error)
	existsFn       func(ctx context.Context, providerID uuid.UUID, slot time.Time) (bool, error)
	insertFn       func(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	getForUpdateFn func(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, error)
	markCanceledFn func(ctx context.Context, appointmentID uuid.UUID, at time.Time) error
}

func (f *fakeTx) FindProvider(ctx context.Context, providerID uuid.UUID) (domain.User, error) {
	if f.findProviderFn == nil {
		panic("FindProvider not configured")
	}
	return f.findProviderFn(ctx, providerID)
}

func (f *fakeTx) ActiveAppointmentExists(ctx context.Context, providerID uuid.UUID, slot time.Time) (bool, error) {
	if f.existsFn == nil {
		panic("ActiveAppointmentExists not configured")
	}
	return f.existsFn(ctx, providerID, slot)
}

func (f *fakeTx) InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	if f.insertFn == nil {
		panic("InsertAppointment not configured")
	}
	return f.insertFn(ctx, appt)
}

func (f *fakeTx) GetAppointmentForUpdate(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, error) {
	if f.getForUpdateFn == nil {
		panic("GetAppointmentForUpdate not configured")
	}
	return f.getForUpdateFn(ctx, appointmentID)
}

func (f *fakeTx) MarkCanceled(ctx context.Context, appointmentID uuid.UUID, at time.Time) error {
	if f.markCanceledFn == nil {
		panic("MarkCanceled not configured")
	}
	return f.markCanceledFn(ctx, appointmentID, at)
}

var (
	clientID   = uuid.MustParse("00000000-0000-0000-0000-00000000000c")
	providerID = uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	now        = time.Date(2025, 3, 10, 11, 30, 0, 0, time.UTC)
)

func newLifecycle() *Lifecycle {
	return New(timepolicy.New(timepolicy.FixedClock(now)))
}

func provider(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return domain.User{ID: id, Name: "Ana", Provider: true}, nil
}

func TestBook_InsertsNormalizedSlot(t *testing.T) {
	var checked, inserted time.Time
	tx := &fakeTx{
		findProviderFn: provider,
		existsFn: func(ctx context.Context, pid uuid.UUID, slot time.Time) (bool, error) {
			checked = slot
			return false, nil
		},
		insertFn: func(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
			inserted = appt.Slot
			if appt.CanceledAt != nil {
				t.Fatalf("inserted canceled appointment")
			}
			appt.ID = uuid.MustParse("00000000-0000-0000-0000-000000000101")
			return appt, nil
		},
	}

	appt, err := newLifecycle().Book(context.Background(), tx, clientID, providerID, time.Date(2025, 3, 10, 14, 25, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}

	want := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	if !checked.Equal(want) || !inserted.Equal(want) || !appt.Slot.Equal(want) {
		t.Fatalf("slots checked=%s inserted=%s returned=%s, want %s", checked, inserted, appt.Slot, want)
	}
	if appt.ClientID != clientID || appt.ProviderID != providerID {
		t.Fatalf("parties = %s/%s, want %s/%s", appt.ClientID, appt.ProviderID, clientID, providerID)
	}
	if appt.Provider == nil || appt.Provider.Name != "Ana" {
		t.Fatalf("provider not attached: %+v", appt.Provider)
	}
}

func TestBook_InvalidProvider(t *testing.T) {
	tx := &fakeTx{
		findProviderFn: func(ctx context.Context, id uuid.UUID) (domain.User, error) {
			return domain.User{}, store.ErrNotFound
		},
	}
	_, err := newLifecycle().Book(context.Background(), tx, clientID, providerID, now.Add(3*time.Hour))
	if !errors.Is(err, ErrInvalidProvider) {
		t.Fatalf("err = %v, want %v", err, ErrInvalidProvider)
	}
}

func TestBook_ProviderLookupFailurePassesThrough(t *testing.T) {
	boom := errors.New("connection reset")
	tx := &fakeTx{
		findProviderFn: func(ctx context.Context, id uuid.UUID) (domain.User, error) {
			return domain.User{}, boom
		},
	}
	_, err := newLifecycle().Book(context.Background(), tx, clientID, providerID, now.Add(3*time.Hour))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestBook_PastDate(t *testing.T) {
	cases := []struct {
		name string
		at   time.Time
	}{
		{"yesterday", now.Add(-24 * time.Hour)},
		// 11:59 normalizes to 11:00, which is before 11:30.
		{"later in the current hour", time.Date(2025, 3, 10, 11, 59, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := &fakeTx{findProviderFn: provider}
			_, err := newLifecycle().Book(context.Background(), tx, clientID, providerID, tc.at)
			if !errors.Is(err, ErrPastDate) {
				t.Fatalf("err = %v, want %v", err, ErrPastDate)
			}
		})
	}
}

func TestBook_SlotTakenByPrecheck(t *testing.T) {
	tx := &fakeTx{
		findProviderFn: provider,
		existsFn: func(ctx context.Context, pid uuid.UUID, slot time.Time) (bool, error) {
			return true, nil
		},
	}
	_, err := newLifecycle().Book(context.Background(), tx, clientID, providerID, now.Add(3*time.Hour))
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("err = %v, want %v", err, ErrSlotUnavailable)
	}
}

func TestBook_UniqueViolationMapsToSlotUnavailable(t *testing.T) {
	tx := &fakeTx{
		findProviderFn: provider,
		existsFn: func(ctx context.Context, pid uuid.UUID, slot time.Time) (bool, error) {
			return false, nil
		},
		insertFn: func(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
			return domain.Appointment{}, store.ErrSlotTaken
		},
	}
	_, err := newLifecycle().Book(context.Background(), tx, clientID, providerID, now.Add(3*time.Hour))
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("err = %v, want %v", err, ErrSlotUnavailable)
	}
}

func activeAppointment(slot time.Time) domain.Appointment {
	return domain.Appointment{
		ID:         uuid.MustParse("00000000-0000-0000-0000-000000000201"),
		ClientID:   clientID,
		ProviderID: providerID,
		Slot:       slot,
		Provider:   &domain.User{ID: providerID, Name: "Ana", Provider: true},
		Client:     &domain.User{ID: clientID, Name: "Bruno"},
	}
}

func TestCancel_Success(t *testing.T) {
	slot := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	var markedAt time.Time
	tx := &fakeTx{
		getForUpdateFn: func(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
			return activeAppointment(slot), nil
		},
		markCanceledFn: func(ctx context.Context, id uuid.UUID, at time.Time) error {
			markedAt = at
			return nil
		},
	}

	appt, err := newLifecycle().Cancel(context.Background(), tx, clientID, uuid.MustParse("00000000-0000-0000-0000-000000000201"))
	if err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if !markedAt.Equal(now) {
		t.Fatalf("marked at %s, want %s", markedAt, now)
	}
	if appt.CanceledAt == nil || !appt.CanceledAt.Equal(now) {
		t.Fatalf("CanceledAt = %v, want %s", appt.CanceledAt, now)
	}
	if appt.State() != domain.AppointmentStateCanceled {
		t.Fatalf("state = %s, want canceled", appt.State())
	}
	if appt.Client == nil || appt.Provider == nil {
		t.Fatalf("relations dropped")
	}
}

func TestCancel_Rejections(t *testing.T) {
	slot := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	stranger := uuid.MustParse("00000000-0000-0000-0000-0000000000ff")
	canceledAt := now.Add(-time.Hour)

	cases := []struct {
		name   string
		caller uuid.UUID
		appt   func() (domain.Appointment, error)
		now    time.Time
		want   error
	}{
		{
			name:   "missing",
			caller: clientID,
			appt:   func() (domain.Appointment, error) { return domain.Appointment{}, store.ErrNotFound },
			now:    now,
			want:   ErrNotFound,
		},
		{
			name:   "not the owner",
			caller: stranger,
			appt:   func() (domain.Appointment, error) { return activeAppointment(slot), nil },
			now:    now,
			want:   ErrForbidden,
		},
		{
			name:   "already canceled",
			caller: clientID,
			appt: func() (domain.Appointment, error) {
				a := activeAppointment(slot)
				a.CanceledAt = &canceledAt
				return a, nil
			},
			now:  now,
			want: ErrAlreadyCanceled,
		},
		{
			name:   "exactly two hours before",
			caller: clientID,
			appt:   func() (domain.Appointment, error) { return activeAppointment(slot), nil },
			now:    slot.Add(-2 * time.Hour),
			want:   ErrCancellationWindowExpired,
		},
		{
			name:   "slot already passed",
			caller: clientID,
			appt:   func() (domain.Appointment, error) { return activeAppointment(slot), nil },
			now:    slot.Add(time.Minute),
			want:   ErrCancellationWindowExpired,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := &fakeTx{
				getForUpdateFn: func(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
					return tc.appt()
				},
				markCanceledFn: func(ctx context.Context, id uuid.UUID, at time.Time) error {
					t.Fatalf("MarkCanceled must not be called")
					return nil
				},
			}
			l := New(timepolicy.New(timepolicy.FixedClock(tc.now)))
			_, err := l.Cancel(context.Background(), tx, tc.caller, uuid.New())
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCancel_LostRaceReportsAlreadyCanceled(t *testing.T) {
	slot := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	tx := &fakeTx{
		getForUpdateFn: func(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
			return activeAppointment(slot), nil
		},
		markCanceledFn: func(ctx context.Context, id uuid.UUID, at time.Time) error {
			return store.ErrNotFound
		},
	}
	_, err := newLifecycle().Cancel(context.Background(), tx, clientID, uuid.New())
	if !errors.Is(err, ErrAlreadyCanceled) {
		t.Fatalf("err = %v, want %v", err, ErrAlreadyCanceled)
	}
}
