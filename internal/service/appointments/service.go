package appointments

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"gobarber/backend/internal/domain"
	"gobarber/backend/internal/lifecycle"
	"gobarber/backend/internal/store"
	"gobarber/backend/internal/telemetry"
	"gobarber/backend/internal/timepolicy"
)

// PageSize is the number of appointments returned per List page.
const PageSize = 20

const defaultSideEffectTimeout = 5 * time.Second

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// Notifier emits the side effects of a committed state change.
type Notifier interface {
	OnBooked(ctx context.Context, appt domain.Appointment, clientName string) (domain.Notification, error)
	OnCanceled(ctx context.Context, job domain.CancellationJob) error
}

type Service struct {
	repo              store.AppointmentRepository
	notifier          Notifier
	policy            *timepolicy.Policy
	lifecycle         *lifecycle.Lifecycle
	metrics           *telemetry.Metrics
	log               *slog.Logger
	sideEffectTimeout time.Duration
}

type Option func(*Service)

func WithClock(clock timepolicy.Clock) Option {
	return func(s *Service) { s.policy = timepolicy.New(clock) }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithSideEffectTimeout bounds how long notification and enqueue may take
// after a commit.
func WithSideEffectTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sideEffectTimeout = d
		}
	}
}

func NewService(repo store.AppointmentRepository, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		repo:              repo,
		notifier:          notifier,
		policy:            timepolicy.New(nil),
		metrics:           telemetry.Default,
		log:               slog.Default(),
		sideEffectTimeout: defaultSideEffectTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lifecycle = lifecycle.New(s.policy)
	s.log = s.log.With(slog.String("component", "service.appointments"))
	return s
}

// AppointmentView is an active appointment as its client sees it.
type AppointmentView struct {
	domain.Appointment
	Past       bool
	Cancelable bool
}

func (s *Service) List(ctx context.Context, clientID uuid.UUID, page int) ([]AppointmentView, error) {
	if clientID == uuid.Nil {
		return nil, validationError("client_id is required")
	}
	if page < 1 {
		page = 1
	}

	rows, err := s.repo.ListActiveByClient(ctx, clientID, PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, storeFailure(err)
	}

	out := make([]AppointmentView, 0, len(rows))
	for _, a := range rows {
		out = append(out, AppointmentView{
			Appointment: a,
			Past:        s.policy.IsPast(a.Slot),
			Cancelable:  s.policy.IsCancelable(a),
		})
	}
	return out, nil
}

type CreateInput struct {
	ClientID   uuid.UUID
	ProviderID string
	// Date is an RFC 3339 timestamp. Minutes and seconds are dropped.
	Date string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Appointment, error) {
	if in.ClientID == uuid.Nil {
		return domain.Appointment{}, validationError("client_id is required")
	}
	rawProvider := strings.TrimSpace(in.ProviderID)
	if rawProvider == "" {
		return domain.Appointment{}, validationError("provider_id is required")
	}
	providerID, err := uuid.Parse(rawProvider)
	if err != nil {
		return domain.Appointment{}, validationError("provider_id must be a UUID")
	}
	rawDate := strings.TrimSpace(in.Date)
	if rawDate == "" {
		return domain.Appointment{}, validationError("date is required")
	}
	date, err := time.Parse(time.RFC3339Nano, rawDate)
	if err != nil {
		return domain.Appointment{}, validationError("date must be an ISO-8601 timestamp with offset")
	}

	var appt domain.Appointment
	err = s.repo.InProviderTransaction(ctx, providerID, func(ctx context.Context, tx store.SchedulingTx) error {
		a, err := s.lifecycle.Book(ctx, tx, in.ClientID, providerID, date)
		if err != nil {
			return err
		}
		appt = a
		return nil
	})
	if err != nil {
		err = classify(err)
		s.metrics.Bookings.WithLabelValues(string(KindOf(err))).Inc()
		return domain.Appointment{}, err
	}
	s.metrics.Bookings.WithLabelValues("created").Inc()

	s.afterBooked(ctx, appt)
	return appt, nil
}

func (s *Service) Cancel(ctx context.Context, clientID uuid.UUID, appointmentID string) (domain.Appointment, error) {
	if clientID == uuid.Nil {
		return domain.Appointment{}, validationError("client_id is required")
	}
	id, err := uuid.Parse(strings.TrimSpace(appointmentID))
	if err != nil {
		return domain.Appointment{}, validationError("appointment_id must be a UUID")
	}

	var appt domain.Appointment
	err = s.repo.InTransaction(ctx, func(ctx context.Context, tx store.SchedulingTx) error {
		a, err := s.lifecycle.Cancel(ctx, tx, clientID, id)
		if err != nil {
			return err
		}
		appt = a
		return nil
	})
	if err != nil {
		err = classify(err)
		s.metrics.Cancellations.WithLabelValues(string(KindOf(err))).Inc()
		return domain.Appointment{}, err
	}
	s.metrics.Cancellations.WithLabelValues("canceled").Inc()

	s.afterCanceled(ctx, appt)
	return appt, nil
}

// sideEffectContext outlives the caller's cancellation: the state change is
// already committed.
func (s *Service) sideEffectContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.sideEffectTimeout)
}

func (s *Service) afterBooked(ctx context.Context, appt domain.Appointment) {
	ctx, cancel := s.sideEffectContext(ctx)
	defer cancel()

	log := s.log.With(slog.String("appointment_id", appt.ID.String()), slog.String("provider_id", appt.ProviderID.String()))

	client, err := s.repo.FindUser(ctx, appt.ClientID)
	if err != nil {
		s.metrics.SideEffectFailures.WithLabelValues("notification").Inc()
		log.Warn("provider notification skipped; client lookup failed", slog.Any("err", err))
		return
	}
	if _, err := s.notifier.OnBooked(ctx, appt, client.Name); err != nil {
		s.metrics.SideEffectFailures.WithLabelValues("notification").Inc()
		log.Warn("provider notification failed", slog.Any("err", err))
	}
}

func (s *Service) afterCanceled(ctx context.Context, appt domain.Appointment) {
	ctx, cancel := s.sideEffectContext(ctx)
	defer cancel()

	log := s.log.With(slog.String("appointment_id", appt.ID.String()))

	job, err := domain.NewCancellationJob(appt)
	if err != nil {
		s.metrics.SideEffectFailures.WithLabelValues("cancellation_mail").Inc()
		log.Error("cancellation job not built", slog.Any("err", err))
		return
	}
	if err := s.notifier.OnCanceled(ctx, job); err != nil {
		s.metrics.SideEffectFailures.WithLabelValues("cancellation_mail").Inc()
		log.Warn("cancellation mail enqueue failed", slog.Any("err", err))
	}
}

// classify keeps domain errors as they are and wraps everything else as a
// store failure.
func classify(err error) error {
	if KindOf(err) != KindStoreFailure {
		return err
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return storeFailure(err)
}
