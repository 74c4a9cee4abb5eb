package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

type KafkaConfig struct {
	Brokers      string
	Topic        string
	GroupID      string
	MaxAttempts  int
	RetryBackoff time.Duration
}

func (c KafkaConfig) withDefaults() KafkaConfig {
	if c.Topic == "" {
		c.Topic = "gobarber.jobs"
	}
	if c.GroupID == "" {
		c.GroupID = "gobarber-worker"
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = time.Second
	}
	return c
}

func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaEnqueuer struct {
	writer messageWriter
}

func NewKafkaEnqueuer(cfg KafkaConfig) *KafkaEnqueuer {
	cfg = cfg.withDefaults()
	return &KafkaEnqueuer{writer: &kafka.Writer{
		Addr:         kafka.TCP(SplitBrokers(cfg.Brokers)...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}}
}

func (e *KafkaEnqueuer) Enqueue(ctx context.Context, job Job) error {
	b, err := json.Marshal(job)
	if err != nil {
		return err
	}
	headers := []kafka.Header{
		{Key: "event_id", Value: []byte(job.ID)},
		{Key: "event_type", Value: []byte(job.Kind)},
	}
	return e.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(job.ID),
		Value:   b,
		Headers: injectTraceHeaders(ctx, headers),
	})
}

func (e *KafkaEnqueuer) Close() error {
	return e.writer.Close()
}

// KafkaConsumer reads with a consumer group and commits a message once its
// job succeeded or ran out of attempts.
type KafkaConsumer struct {
	reader messageReader
	cfg    KafkaConfig
	log    *slog.Logger
}

func NewKafkaConsumer(cfg KafkaConfig, log *slog.Logger) *KafkaConsumer {
	cfg = cfg.withDefaults()
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  SplitBrokers(cfg.Brokers),
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return newKafkaConsumer(reader, cfg, log)
}

func newKafkaConsumer(reader messageReader, cfg KafkaConfig, log *slog.Logger) *KafkaConsumer {
	if log == nil {
		log = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &KafkaConsumer{
		reader: reader,
		cfg:    cfg,
		log:    log.With(slog.String("component", "queue.kafka"), slog.String("topic", cfg.Topic)),
	}
}

func (c *KafkaConsumer) Run(ctx context.Context, h Handler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			c.log.Error("kafka fetch failed", slog.Any("err", err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		if !c.process(extractTraceContext(ctx, msg), h, msg) {
			// Left uncommitted so the group redelivers it.
			c.log.Info("job interrupted by shutdown", slog.Int64("offset", msg.Offset))
			return nil
		}

		if err := c.reader.CommitMessages(context.WithoutCancel(ctx), msg); err != nil {
			c.log.Error("kafka commit failed", slog.Any("err", err), slog.Int64("offset", msg.Offset))
		}
	}
}

// process reports whether the message reached a final outcome: the job
// succeeded, ran out of attempts or could not be decoded. It returns false
// when ctx ended first.
func (c *KafkaConsumer) process(ctx context.Context, h Handler, msg kafka.Message) bool {
	var job Job
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		c.log.Error("undecodable job skipped", slog.Any("err", err), slog.Int64("offset", msg.Offset))
		return true
	}

	log := c.log.With(slog.String("job_id", job.ID), slog.String("kind", string(job.Kind)))
	for {
		err := h(ctx, job)
		if err == nil {
			log.Debug("job done", slog.Int("attempt", job.Attempt))
			return true
		}
		if ctx.Err() != nil {
			log.Warn("job failed during shutdown", slog.Any("err", err), slog.Int("attempt", job.Attempt))
			return false
		}
		job.Attempt++
		if job.Attempt >= c.cfg.MaxAttempts {
			log.Error("job failed permanently", slog.Any("err", err), slog.Int("attempt", job.Attempt))
			return true
		}
		log.Warn("job failed; retrying", slog.Any("err", err), slog.Int("attempt", job.Attempt))
		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.cfg.RetryBackoff):
		}
	}
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}

func KafkaReadyCheck(brokers string) func(context.Context) error {
	return func(ctx context.Context) error {
		list := SplitBrokers(brokers)
		if len(list) == 0 {
			return errors.New("kafka brokers not configured")
		}
		dialer := kafka.Dialer{Timeout: 2 * time.Second}
		conn, err := dialer.DialContext(ctx, "tcp", list[0])
		if err != nil {
			return err
		}
		_ = conn.Close()
		return nil
	}
}

func injectTraceHeaders(ctx context.Context, headers []kafka.Header) []kafka.Header {
	carrier := &headerCarrier{headers: headers}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return carrier.headers
}

func extractTraceContext(ctx context.Context, msg kafka.Message) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, &headerCarrier{headers: msg.Headers})
}

type headerCarrier struct {
	headers []kafka.Header
}

func (c *headerCarrier) Get(key string) string {
	for _, h := range c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.headers))
	for _, h := range c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}

func (c *headerCarrier) Set(key, value string) {
	for i := range c.headers {
		if c.headers[i].Key == key {
			c.headers[i].Value = []byte(value)
			return
		}
	}
	c.headers = append(c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

var _ propagation.TextMapCarrier = (*headerCarrier)(nil)
