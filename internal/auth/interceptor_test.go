package auth

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func callInterceptor(t *testing.T, ctx context.Context, method string) (uuid.UUID, error) {
	t.Helper()
	var seen uuid.UUID
	interceptor := UnaryServerInterceptor([]byte("test-secret"), slog.Default())
	_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: method}, func(ctx context.Context, req any) (any, error) {
		seen, _ = UserIDFromContext(ctx)
		return nil, nil
	})
	return seen, err
}

func TestUnaryServerInterceptor_AcceptsBearerToken(t *testing.T) {
	token, err := Issue([]byte("test-secret"), userID, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))

	got, err := callInterceptor(t, ctx, "/gobarber.v1.AppointmentsService/ListAppointments")
	if err != nil {
		t.Fatalf("interceptor error: %v", err)
	}
	if got != userID {
		t.Fatalf("user id = %s, want %s", got, userID)
	}
}

func TestUnaryServerInterceptor_RejectsMissingOrBadToken(t *testing.T) {
	cases := []struct {
		name string
		md   metadata.MD
	}{
		{"no metadata", nil},
		{"no header", metadata.Pairs("x-other", "1")},
		{"wrong scheme", metadata.Pairs("authorization", "Basic abc")},
		{"garbage token", metadata.Pairs("authorization", "Bearer not-a-jwt")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			if tc.md != nil {
				ctx = metadata.NewIncomingContext(ctx, tc.md)
			}
			_, err := callInterceptor(t, ctx, "/gobarber.v1.AppointmentsService/CreateAppointment")
			if status.Code(err) != codes.Unauthenticated {
				t.Fatalf("code = %s, want %s", status.Code(err), codes.Unauthenticated)
			}
		})
	}
}

func TestUnaryServerInterceptor_SkipsHealth(t *testing.T) {
	_, err := callInterceptor(t, context.Background(), "/grpc.health.v1.Health/Check")
	if err != nil {
		t.Fatalf("health check should not require a token: %v", err)
	}
}
