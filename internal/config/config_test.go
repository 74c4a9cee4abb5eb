package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "GRPC_HOST", "GRPC_PORT", "GRPC_ADDR", "DATABASE_URL", "MONGO_URL",
		"REDIS_ADDR", "REDIS_PASS", "KAFKA_BROKERS", "APP_SECRET", "LOG_LEVEL",
		"SHUTDOWN_TIMEOUT", "OTEL_EXPORTER_OTLP_ENDPOINT",
		"GOBARBER_GRPC_ADDR", "GOBARBER_QUEUE_DRIVER", "GOBARBER_AUTH_JWT_SECRET",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.GRPCAddr() != "0.0.0.0:50051" {
		t.Fatalf("GRPCAddr = %q", cfg.GRPCAddr())
	}
	if cfg.QueueDriver != "redis" || cfg.RedisKey != "gobarber:jobs" || cfg.QueueMaxAttempts != 5 {
		t.Fatalf("queue = %q %q %d", cfg.QueueDriver, cfg.RedisKey, cfg.QueueMaxAttempts)
	}
	if cfg.GRPCRequestTimeout != 10*time.Second || cfg.SideEffectTimeout != 5*time.Second {
		t.Fatalf("timeouts = %s %s", cfg.GRPCRequestTimeout, cfg.SideEffectTimeout)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("TokenTTL = %s", cfg.TokenTTL)
	}
	if _, err := cfg.RequireSecret(); err == nil {
		t.Fatalf("RequireSecret: expected error without secret")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOBARBER_GRPC_ADDR", "127.0.0.1:6000")
	t.Setenv("GOBARBER_QUEUE_DRIVER", "Kafka")
	t.Setenv("GOBARBER_KAFKA_TOPIC", "jobs")
	t.Setenv("GOBARBER_DATABASE_MAX_OPEN_CONNS", "7")
	t.Setenv("APP_SECRET", "s3cret")
	t.Setenv("GOBARBER_SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.GRPCHost != "127.0.0.1" || cfg.GRPCPort != 6000 {
		t.Fatalf("grpc = %s:%d", cfg.GRPCHost, cfg.GRPCPort)
	}
	if cfg.QueueDriver != "kafka" || cfg.KafkaTopic != "jobs" {
		t.Fatalf("queue = %q %q", cfg.QueueDriver, cfg.KafkaTopic)
	}
	if cfg.DBMaxOpenConns != 7 {
		t.Fatalf("DBMaxOpenConns = %d", cfg.DBMaxOpenConns)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("ShutdownTimeout = %s", cfg.ShutdownTimeout)
	}
	secret, err := cfg.RequireSecret()
	if err != nil || string(secret) != "s3cret" {
		t.Fatalf("RequireSecret = %q, %v", secret, err)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"GOBARBER_GRPC_REQUEST_TIMEOUT": "soon",
		"GOBARBER_QUEUE_DRIVER":         "sqs",
		"GOBARBER_DISPLAY_TIMEZONE":     "Mars/Olympus",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load with %s=%q: expected error", key, value)
			}
		})
	}
}
