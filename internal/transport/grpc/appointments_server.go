package grpc

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"gobarber/backend/internal/auth"
	"gobarber/backend/internal/domain"
	"gobarber/backend/internal/service/appointments"
)

type AppointmentsServer struct {
	UnimplementedAppointmentsServiceServer

	svc appointmentsService
	log *slog.Logger
}

type appointmentsService interface {
	List(ctx context.Context, clientID uuid.UUID, page int) ([]appointments.AppointmentView, error)
	Create(ctx context.Context, in appointments.CreateInput) (domain.Appointment, error)
	Cancel(ctx context.Context, clientID uuid.UUID, appointmentID string) (domain.Appointment, error)
}

func NewAppointmentsServer(svc appointmentsService, log *slog.Logger) *AppointmentsServer {
	if log == nil {
		log = slog.Default()
	}
	return &AppointmentsServer{
		svc: svc,
		log: log.With(slog.String("component", "grpc.appointments")),
	}
}

func (s *AppointmentsServer) ListAppointments(ctx context.Context, req *ListAppointmentsRequest) (*ListAppointmentsResponse, error) {
	log := s.log.With(slog.String("rpc", "ListAppointments"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	clientID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		log.Warn("unauthenticated call")
		return nil, status.Error(codes.Unauthenticated, "token not provided")
	}
	log = log.With(slog.String("user_id", clientID.String()))

	views, err := s.svc.List(ctx, clientID, req.Page)
	if err != nil {
		return nil, s.statusFor(ctx, log, "appointments list failed", err)
	}

	out := make([]*Appointment, 0, len(views))
	for _, v := range views {
		a := toWireAppointment(v.Appointment)
		a.Past = v.Past
		a.Cancelable = v.Cancelable
		out = append(out, a)
	}

	log.Debug("appointments listed", slog.Int("page", req.Page), slog.Int("count", len(out)))
	return &ListAppointmentsResponse{Appointments: out}, nil
}

func (s *AppointmentsServer) CreateAppointment(ctx context.Context, req *CreateAppointmentRequest) (*CreateAppointmentResponse, error) {
	log := s.log.With(slog.String("rpc", "CreateAppointment"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	clientID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		log.Warn("unauthenticated call")
		return nil, status.Error(codes.Unauthenticated, "token not provided")
	}
	log = log.With(slog.String("user_id", clientID.String()), slog.String("provider_id", req.ProviderID))

	appt, err := s.svc.Create(ctx, appointments.CreateInput{
		ClientID:   clientID,
		ProviderID: req.ProviderID,
		Date:       req.Date,
	})
	if err != nil {
		return nil, s.statusFor(ctx, log, "appointment create failed", err)
	}

	log.Info(
		"appointment created",
		slog.String("appointment_id", appt.ID.String()),
		slog.Time("slot", appt.Slot),
	)
	return &CreateAppointmentResponse{Appointment: toWireAppointment(appt)}, nil
}

func (s *AppointmentsServer) CancelAppointment(ctx context.Context, req *CancelAppointmentRequest) (*CancelAppointmentResponse, error) {
	log := s.log.With(slog.String("rpc", "CancelAppointment"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	clientID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		log.Warn("unauthenticated call")
		return nil, status.Error(codes.Unauthenticated, "token not provided")
	}
	log = log.With(slog.String("user_id", clientID.String()), slog.String("appointment_id", req.AppointmentID))

	appt, err := s.svc.Cancel(ctx, clientID, req.AppointmentID)
	if err != nil {
		return nil, s.statusFor(ctx, log, "appointment cancel failed", err)
	}

	log.Info("appointment canceled", slog.Time("slot", appt.Slot))
	return &CancelAppointmentResponse{Appointment: toWireAppointment(appt)}, nil
}

// statusFor maps a service error to a gRPC status. Rule violations are
// logged at info, bad input at warn, everything else at error.
func (s *AppointmentsServer) statusFor(ctx context.Context, log *slog.Logger, msg string, err error) error {
	kind := appointments.KindOf(err)
	switch kind {
	case appointments.KindValidation:
		log.Warn("invalid request", slog.Any("err", err))
		return status.Error(codes.InvalidArgument, err.Error())
	case appointments.KindInvalidProvider:
		log.Info("booking rejected", slog.String("kind", string(kind)))
		return status.Error(codes.InvalidArgument, "You can only create appointments with providers.")
	case appointments.KindPastDate:
		log.Info("booking rejected", slog.String("kind", string(kind)))
		return status.Error(codes.InvalidArgument, "Past dates are not permitted.")
	case appointments.KindSlotUnavailable:
		log.Info("booking rejected", slog.String("kind", string(kind)))
		return status.Error(codes.AlreadyExists, "Appointment date is not available.")
	case appointments.KindNotFound:
		log.Info("appointment not found")
		return status.Error(codes.NotFound, "appointment not found")
	case appointments.KindForbidden:
		log.Info("cancel rejected", slog.String("kind", string(kind)))
		return status.Error(codes.PermissionDenied, "You don't have permission to cancel this appointment.")
	case appointments.KindCancellationWindowExpired:
		log.Info("cancel rejected", slog.String("kind", string(kind)))
		return status.Error(codes.FailedPrecondition, "You can only cancel appointments 2 hours in advance.")
	case appointments.KindAlreadyCanceled:
		log.Info("cancel rejected", slog.String("kind", string(kind)))
		return status.Error(codes.FailedPrecondition, "This appointment is already canceled.")
	}

	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		log.Warn(msg, slog.Any("err", err))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}
	log.Error(msg, slog.Any("err", err))
	return status.Error(codes.Internal, "internal error")
}

func toWireAppointment(a domain.Appointment) *Appointment {
	out := &Appointment{
		ID:         a.ID.String(),
		Date:       a.Slot.UTC(),
		ClientID:   a.ClientID.String(),
		ProviderID: a.ProviderID.String(),
		CreatedAt:  a.CreatedAt.UTC(),
		UpdatedAt:  a.UpdatedAt.UTC(),
	}
	if a.CanceledAt != nil {
		at := a.CanceledAt.UTC()
		out.CanceledAt = &at
	}
	if a.Provider != nil {
		out.Provider = &Provider{ID: a.Provider.ID.String(), Name: a.Provider.Name}
	}
	return out
}
