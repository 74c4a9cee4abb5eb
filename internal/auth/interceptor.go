package auth

import (
	"context"
	"log/slog"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const healthServicePrefix = "/grpc.health.v1.Health/"

// UnaryServerInterceptor requires a bearer token in the "authorization"
// metadata of every call except health checks, and stores the caller's id
// in the request context.
func UnaryServerInterceptor(secret []byte, log *slog.Logger) grpc.UnaryServerInterceptor {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "grpc.auth"))

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if strings.HasPrefix(info.FullMethod, healthServicePrefix) {
			return handler(ctx, req)
		}

		token := bearerToken(ctx)
		if token == "" {
			log.Info("missing token", slog.String("method", info.FullMethod))
			return nil, status.Error(codes.Unauthenticated, "token not provided")
		}

		claims, err := Parse(secret, token)
		if err != nil {
			log.Info("invalid token", slog.String("method", info.FullMethod), slog.Any("err", err))
			return nil, status.Error(codes.Unauthenticated, "token invalid")
		}
		userID, err := claims.UserID()
		if err != nil {
			log.Info("invalid token subject", slog.String("method", info.FullMethod), slog.Any("err", err))
			return nil, status.Error(codes.Unauthenticated, "token invalid")
		}

		return handler(WithUserID(ctx, userID), req)
	}
}

func bearerToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return ""
	}
	parts := strings.SplitN(strings.TrimSpace(values[0]), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// BearerCredentials attaches a token to every outgoing call.
type BearerCredentials struct {
	Token    string
	Insecure bool
}

func (c BearerCredentials) GetRequestMetadata(ctx context.Context, uri ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + c.Token}, nil
}

func (c BearerCredentials) RequireTransportSecurity() bool {
	return !c.Insecure
}
