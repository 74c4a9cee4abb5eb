package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gobarber/backend/internal/domain"
)

type AppointmentRepository interface {
	// InProviderTransaction serializes fn against other transactions for the same provider.
	InProviderTransaction(ctx context.Context, providerID uuid.UUID, fn func(ctx context.Context, tx SchedulingTx) error) error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx SchedulingTx) error) error

	ListActiveByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]domain.Appointment, error)
	FindUser(ctx context.Context, userID uuid.UUID) (domain.User, error)
}

// SchedulingTx is the set of operations the lifecycle runs inside one transaction.
type SchedulingTx interface {
	FindProvider(ctx context.Context, providerID uuid.UUID) (domain.User, error)
	ActiveAppointmentExists(ctx context.Context, providerID uuid.UUID, slot time.Time) (bool, error)
	InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	GetAppointmentForUpdate(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, error)
	MarkCanceled(ctx context.Context, appointmentID uuid.UUID, at time.Time) error
}

type NotificationRepository interface {
	Insert(ctx context.Context, n domain.Notification) (domain.Notification, error)
}
