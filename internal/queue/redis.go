package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// Key is the list jobs are pushed to. Failed jobs end in Key+":dead".
	Key         string
	MaxAttempts int
	PollTimeout time.Duration
}

func (c RedisConfig) withDefaults() RedisConfig {
	if c.Key == "" {
		c.Key = "gobarber:jobs"
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 5 * time.Second
	}
	return c
}

// listClient is the subset of *redis.Client the queue uses.
type listClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	BLMove(ctx context.Context, source, destination, srcpos, destpos string, timeout time.Duration) *redis.StringCmd
	LMove(ctx context.Context, source, destination, srcpos, destpos string) *redis.StringCmd
	LRem(ctx context.Context, key string, count int64, value interface{}) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

type RedisQueue struct {
	client listClient
	closer func() error
	cfg    RedisConfig
	log    *slog.Logger
}

func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  cfg.withDefaults().PollTimeout + 3*time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

func NewRedisQueue(client *redis.Client, cfg RedisConfig, log *slog.Logger) *RedisQueue {
	q := newRedisQueue(client, cfg, log)
	q.closer = client.Close
	return q
}

func newRedisQueue(client listClient, cfg RedisConfig, log *slog.Logger) *RedisQueue {
	if log == nil {
		log = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &RedisQueue{
		client: client,
		cfg:    cfg,
		log:    log.With(slog.String("component", "queue.redis"), slog.String("key", cfg.Key)),
	}
}

func (q *RedisQueue) deadKey() string {
	return q.cfg.Key + ":dead"
}

func (q *RedisQueue) processingKey() string {
	return q.cfg.Key + ":processing"
}

func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	b, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.cfg.Key, b).Err()
}

func (q *RedisQueue) Run(ctx context.Context, h Handler) error {
	if err := q.recoverInFlight(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		raw, err := q.client.BLMove(ctx, q.cfg.Key, q.processingKey(), "RIGHT", "LEFT", q.cfg.PollTimeout).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			q.log.Error("redis pop failed", slog.Any("err", err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		q.process(ctx, h, raw)
	}
}

// recoverInFlight moves jobs a previous worker popped but never finished
// back to the consuming end of the main list, oldest first.
func (q *RedisQueue) recoverInFlight(ctx context.Context) error {
	recovered := 0
	for {
		_, err := q.client.LMove(ctx, q.processingKey(), q.cfg.Key, "LEFT", "RIGHT").Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return fmt.Errorf("recover in-flight jobs: %w", err)
		}
		recovered++
	}
	if recovered > 0 {
		q.log.Warn("in-flight jobs recovered", slog.Int("count", recovered))
	}
	return nil
}

func (q *RedisQueue) process(ctx context.Context, h Handler, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		q.log.Error("undecodable job moved to dead list", slog.Any("err", err))
		if q.bury(ctx, []byte(raw)) {
			q.ack(ctx, raw)
		}
		return
	}

	log := q.log.With(slog.String("job_id", job.ID), slog.String("kind", string(job.Kind)), slog.Int("attempt", job.Attempt))
	err := h(ctx, job)
	if err == nil {
		log.Debug("job done")
		q.ack(ctx, raw)
		return
	}
	if ctx.Err() != nil {
		// Stays on the processing list for the next Run.
		log.Warn("job interrupted by shutdown", slog.Any("err", err))
		return
	}

	job.Attempt++
	b, mErr := json.Marshal(job)
	if mErr != nil {
		log.Error("job re-encode failed", slog.Any("err", mErr))
		if q.bury(ctx, []byte(raw)) {
			q.ack(ctx, raw)
		}
		return
	}
	if job.Attempt >= q.cfg.MaxAttempts {
		log.Error("job failed permanently", slog.Any("err", err))
		if q.bury(ctx, b) {
			q.ack(ctx, raw)
		}
		return
	}
	log.Warn("job failed; requeued", slog.Any("err", err))
	if pErr := q.client.LPush(context.WithoutCancel(ctx), q.cfg.Key, b).Err(); pErr != nil {
		log.Error("job requeue failed", slog.Any("err", pErr))
		return
	}
	q.ack(ctx, raw)
}

func (q *RedisQueue) ack(ctx context.Context, raw string) {
	if err := q.client.LRem(context.WithoutCancel(ctx), q.processingKey(), 1, raw).Err(); err != nil {
		q.log.Error("processing list cleanup failed", slog.Any("err", err))
	}
}

// bury reports whether b reached the dead list.
func (q *RedisQueue) bury(ctx context.Context, b []byte) bool {
	if err := q.client.LPush(context.WithoutCancel(ctx), q.deadKey(), b).Err(); err != nil {
		q.log.Error("dead list push failed", slog.Any("err", err))
		return false
	}
	return true
}

func (q *RedisQueue) ReadyCheck() func(context.Context) error {
	return func(ctx context.Context) error {
		return q.client.Ping(ctx).Err()
	}
}

func (q *RedisQueue) Close() error {
	if q.closer == nil {
		return nil
	}
	return q.closer()
}
