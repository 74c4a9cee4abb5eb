// Package notify emits the side effects of appointment state changes: an
// inbox notification for the provider on booking and a mail job on
// cancellation.
package notify

import (
	"context"
	"fmt"

	"gobarber/backend/internal/domain"
	"gobarber/backend/internal/queue"
	"gobarber/backend/internal/store"
)

type Dispatcher struct {
	notifications store.NotificationRepository
	jobs          queue.Enqueuer
	format        Formatter
}

func NewDispatcher(notifications store.NotificationRepository, jobs queue.Enqueuer, format Formatter) *Dispatcher {
	return &Dispatcher{notifications: notifications, jobs: jobs, format: format}
}

// OnBooked records a notification addressed to the appointment's provider.
func (d *Dispatcher) OnBooked(ctx context.Context, appt domain.Appointment, clientName string) (domain.Notification, error) {
	n, err := d.notifications.Insert(ctx, domain.Notification{
		RecipientID: appt.ProviderID.String(),
		Content:     d.format.BookedContent(clientName, appt.Slot),
	})
	if err != nil {
		return domain.Notification{}, fmt.Errorf("notify provider %s: %w", appt.ProviderID, err)
	}
	return n, nil
}

// OnCanceled enqueues the cancellation mail job.
func (d *Dispatcher) OnCanceled(ctx context.Context, job domain.CancellationJob) error {
	j, err := queue.NewJob(queue.KindCancellationMail, job)
	if err != nil {
		return err
	}
	if err := d.jobs.Enqueue(ctx, j); err != nil {
		return fmt.Errorf("enqueue %s for appointment %s: %w", j.Kind, job.Appointment.ID, err)
	}
	return nil
}
