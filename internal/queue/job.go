// Package queue moves background jobs between the API and the worker.
// A Job is a JSON envelope; drivers exist for Redis lists and Kafka topics.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Kind string

const KindCancellationMail Kind = "CancellationMail"

var ErrUnknownKind = errors.New("unknown job kind")

type Job struct {
	ID         string          `json:"id"`
	Kind       Kind            `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	Attempt    int             `json:"attempt"`
}

func NewJob(kind Kind, payload any) (Job, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Job{}, err
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return Job{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return Job{
		ID:         id.String(),
		Kind:       kind,
		Payload:    b,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}

func (j Job) Decode(v any) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", j.Kind, err)
	}
	return nil
}

type Enqueuer interface {
	Enqueue(ctx context.Context, job Job) error
}

// Handler processes one job. A returned error makes the driver retry it.
type Handler func(ctx context.Context, job Job) error

// Consumer delivers jobs to a Handler until ctx is done.
type Consumer interface {
	Run(ctx context.Context, h Handler) error
	Close() error
}

// Mux routes jobs to handlers by kind.
type Mux map[Kind]Handler

func (m Mux) Handle(ctx context.Context, job Job) error {
	h, ok := m[job.Kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, job.Kind)
	}
	return h(ctx, job)
}
