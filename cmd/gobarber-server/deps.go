package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"

	"gobarber/backend/internal/notify"
	"gobarber/backend/internal/ops"
	"gobarber/backend/internal/queue"
	"gobarber/backend/internal/store/postgres"
)

func openDatabase(ctx context.Context) (*bun.DB, error) {
	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

func closeDatabase(db *bun.DB) {
	if err := postgres.Close(db); err != nil {
		log.Warn("database close failed", slog.Any("err", err))
	}
}

func redisConfig() queue.RedisConfig {
	return queue.RedisConfig{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		Key:         cfg.RedisKey,
		MaxAttempts: cfg.QueueMaxAttempts,
	}
}

func kafkaConfig() queue.KafkaConfig {
	return queue.KafkaConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaTopic,
		GroupID:      cfg.KafkaGroupID,
		MaxAttempts:  cfg.QueueMaxAttempts,
		RetryBackoff: cfg.KafkaRetryBackoff,
	}
}

type closableEnqueuer interface {
	queue.Enqueuer
	Close() error
}

// openEnqueuer returns the producer side of the configured queue driver.
func openEnqueuer() (closableEnqueuer, ops.ReadyCheck) {
	if cfg.QueueDriver == "kafka" {
		return queue.NewKafkaEnqueuer(kafkaConfig()), ops.ReadyCheck{Name: "kafka", Check: queue.KafkaReadyCheck(cfg.KafkaBrokers)}
	}
	q := queue.NewRedisQueue(queue.NewRedisClient(redisConfig()), redisConfig(), log)
	return q, ops.ReadyCheck{Name: "redis", Check: q.ReadyCheck()}
}

func openConsumer() (queue.Consumer, ops.ReadyCheck) {
	if cfg.QueueDriver == "kafka" {
		return queue.NewKafkaConsumer(kafkaConfig(), log), ops.ReadyCheck{Name: "kafka", Check: queue.KafkaReadyCheck(cfg.KafkaBrokers)}
	}
	q := queue.NewRedisQueue(queue.NewRedisClient(redisConfig()), redisConfig(), log)
	return q, ops.ReadyCheck{Name: "redis", Check: q.ReadyCheck()}
}

func formatter() notify.Formatter {
	// Load validated the zone name already.
	loc, err := time.LoadLocation(cfg.DisplayTimezone)
	if err != nil {
		loc = time.UTC
	}
	return notify.Formatter{Location: loc}
}
