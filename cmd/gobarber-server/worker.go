package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"gobarber/backend/internal/mail"
	"gobarber/backend/internal/ops"
	"gobarber/backend/internal/queue"
	"gobarber/backend/internal/telemetry"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume background jobs and deliver provider emails",
	RunE:  runWorker,
}

func runWorker(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TracerConfig{
		Enabled:      cfg.OTelEnabled,
		ServiceName:  serviceName + "-worker",
		OTLPEndpoint: cfg.OTelEndpoint,
		SampleRatio:  cfg.OTelSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	consumer, queueCheck := openConsumer()
	defer func() {
		if err := consumer.Close(); err != nil {
			log.Warn("queue close failed", slog.Any("err", err))
		}
	}()

	sender, err := mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})
	if err != nil {
		return err
	}
	cancellations := mail.NewCancellationHandler(sender, formatter(), log)

	mux := queue.Mux{
		queue.KindCancellationMail: instrument(queue.KindCancellationMail, cancellations.Handle, telemetry.Default),
	}

	opsServer := &http.Server{
		Addr:              cfg.OpsAddr,
		Handler:           ops.NewRouter(telemetry.Handler(), queueCheck),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("ops server stopped with error", slog.Any("err", err))
		}
	}()
	defer func() {
		httpCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = opsServer.Shutdown(httpCtx)
	}()

	log.Info("worker started", slog.String("queue_driver", cfg.QueueDriver))
	if err := consumer.Run(ctx, mux.Handle); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("consume jobs: %w", err)
	}
	log.Info("worker stopped")
	return nil
}

// instrument counts each handled job by outcome.
func instrument(kind queue.Kind, h queue.Handler, m *telemetry.Metrics) queue.Handler {
	return func(ctx context.Context, job queue.Job) error {
		err := h(ctx, job)
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		m.JobsProcessed.WithLabelValues(string(kind), outcome).Inc()
		return err
	}
}
