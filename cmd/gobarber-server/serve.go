package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"gobarber/backend/internal/auth"
	"gobarber/backend/internal/notify"
	"gobarber/backend/internal/ops"
	"gobarber/backend/internal/service/appointments"
	"gobarber/backend/internal/store/mongo"
	"gobarber/backend/internal/store/postgres"
	"gobarber/backend/internal/telemetry"
	grpcTransport "gobarber/backend/internal/transport/grpc"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the appointments gRPC API and the ops HTTP endpoints",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	secret, err := cfg.RequireSecret()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting", slog.String("grpc_addr", cfg.GRPCAddr()), slog.String("log_level", cfg.LogLevel))

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TracerConfig{
		Enabled:      cfg.OTelEnabled,
		ServiceName:  serviceName,
		OTLPEndpoint: cfg.OTelEndpoint,
		SampleRatio:  cfg.OTelSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("tracer shutdown failed", slog.Any("err", err))
		}
	}()

	db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	mongoClient, err := mongo.Open(ctx, cfg.MongoURI)
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warn("mongo disconnect failed", slog.Any("err", err))
		}
	}()
	notifications := mongo.NewNotificationRepo(mongoClient.Database(cfg.MongoDatabase))
	if err := notifications.EnsureIndexes(ctx); err != nil {
		log.Warn("notification index creation failed", slog.Any("err", err))
	}

	jobs, queueCheck := openEnqueuer()
	defer func() {
		if err := jobs.Close(); err != nil {
			log.Warn("queue close failed", slog.Any("err", err))
		}
	}()

	svc := appointments.NewService(
		postgres.NewAppointmentRepo(db),
		notify.NewDispatcher(notifications, jobs, formatter()),
		appointments.WithLogger(log),
		appointments.WithMetrics(telemetry.Default),
		appointments.WithSideEffectTimeout(cfg.SideEffectTimeout),
	)

	healthServer := health.NewServer()
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			defaultRequestTimeoutInterceptor(cfg.GRPCRequestTimeout),
			auth.UnaryServerInterceptor(secret, log),
		),
	)
	grpcTransport.RegisterAppointmentsServiceServer(grpcServer, grpcTransport.NewAppointmentsServer(svc, log))
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(grpcTransport.ServiceName, healthpb.HealthCheckResponse_SERVING)

	opsServer := &http.Server{
		Addr: cfg.OpsAddr,
		Handler: ops.NewRouter(telemetry.Handler(),
			ops.ReadyCheck{Name: "postgres", Check: postgres.ReadyCheck(db)},
			ops.ReadyCheck{Name: "mongo", Check: mongo.ReadyCheck(mongoClient)},
			queueCheck,
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		log.Error("grpc listen failed", slog.Any("err", err), slog.String("grpc_addr", cfg.GRPCAddr()))
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- grpcServer.Serve(lis)
	}()
	go func() {
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("ops server: %w", err)
		}
	}()

	log.Info("grpc server started", slog.String("grpc_addr", cfg.GRPCAddr()), slog.String("ops_addr", cfg.OpsAddr))

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Error("server stopped with error", slog.Any("err", err))
			runErr = err
		}
	}

	healthServer.Shutdown()
	shutdownGRPC(log, grpcServer, cfg.ShutdownTimeout)

	httpCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := opsServer.Shutdown(httpCtx); err != nil {
		log.Warn("ops server shutdown failed", slog.Any("err", err))
	}
	return runErr
}
