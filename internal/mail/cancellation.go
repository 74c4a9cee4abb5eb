package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"log/slog"
	netmail "net/mail"
	"text/template"

	"gobarber/backend/internal/domain"
	"gobarber/backend/internal/notify"
	"gobarber/backend/internal/queue"
)

const CancellationSubject = "Agendamento cancelado"

//go:embed templates/*.txt
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.txt"))

type cancellationData struct {
	ProviderName string
	ClientName   string
	Date         string
}

func RenderCancellation(job domain.CancellationJob, format notify.Formatter) (string, error) {
	var buf bytes.Buffer
	err := templates.ExecuteTemplate(&buf, "cancellation.txt", cancellationData{
		ProviderName: job.Provider.Name,
		ClientName:   job.Client.Name,
		Date:         format.LongDate(job.Appointment.Slot),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// CancellationHandler tells the provider that a client canceled.
type CancellationHandler struct {
	sender Sender
	format notify.Formatter
	log    *slog.Logger
}

func NewCancellationHandler(sender Sender, format notify.Formatter, log *slog.Logger) *CancellationHandler {
	if log == nil {
		log = slog.Default()
	}
	return &CancellationHandler{
		sender: sender,
		format: format,
		log:    log.With(slog.String("component", "mail.cancellation")),
	}
}

func (h *CancellationHandler) Handle(ctx context.Context, job queue.Job) error {
	var payload domain.CancellationJob
	if err := job.Decode(&payload); err != nil {
		return err
	}
	to := &netmail.Address{Name: payload.Provider.Name, Address: payload.Provider.Email}
	if err := checkAddress(to); err != nil {
		return fmt.Errorf("appointment %s provider: %w", payload.Appointment.ID, err)
	}

	body, err := RenderCancellation(payload, h.format)
	if err != nil {
		return fmt.Errorf("render cancellation mail: %w", err)
	}

	if err := h.sender.Send(to, CancellationSubject, body); err != nil {
		return fmt.Errorf("send cancellation mail: %w", err)
	}

	h.log.Info(
		"cancellation mail sent",
		slog.String("job_id", job.ID),
		slog.String("appointment_id", payload.Appointment.ID.String()),
	)
	return nil
}
