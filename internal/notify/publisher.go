// Package notify delivers entity change events to downstream consumers.
//
// Events are first written to the entity_change outbox by the sync writer,
// inside the same transaction as the entity itself. After every terminal
// run the Outbox publishes the pending rows of the source and marks them
// delivered. Delivery is at-least-once: a failed publish leaves the rows
// pending for the next flush, so consumers de-duplicate by event ID.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stacklok/oparl-sync/internal/config"
)

// Actions of a ChangeEvent
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ChangeEvent announces that one entity was created, updated or tombstoned
type ChangeEvent struct {
	ID         uuid.UUID `json:"id"`
	RunID      uuid.UUID `json:"runId"`
	SourceID   string    `json:"sourceId"`
	Kind       string    `json:"kind"`
	ExternalID string    `json:"externalId"`
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher hands change events to a downstream transport
//
//go:generate mockgen -destination=mocks/mock_publisher.go -package=mocks -source=publisher.go Publisher
type Publisher interface {
	// Publish delivers the events in order. An error means none of the
	// events may be considered delivered.
	Publish(ctx context.Context, events []ChangeEvent) error
	// Close releases the transport
	Close() error
}

// NewPublisher builds the publisher selected by the notify configuration
func NewPublisher(cfg config.NotifyConfig) (Publisher, error) {
	switch cfg.Type {
	case "", config.NotifyTypeLog:
		return NewLogPublisher(slog.Default()), nil
	case config.NotifyTypeRabbitMQ:
		if cfg.RabbitMQ == nil {
			return nil, fmt.Errorf("notify type %s requires a rabbitmq section", cfg.Type)
		}
		return NewRabbitMQPublisher(*cfg.RabbitMQ)
	default:
		return nil, fmt.Errorf("unsupported notify type: %s", cfg.Type)
	}
}

// LogPublisher writes every event to the structured log
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a publisher writing to logger
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish implements Publisher
func (p *LogPublisher) Publish(ctx context.Context, events []ChangeEvent) error {
	for _, e := range events {
		p.logger.InfoContext(ctx, "Entity changed",
			"event_id", e.ID,
			"run", e.RunID,
			"source", e.SourceID,
			"kind", e.Kind,
			"external_id", e.ExternalID,
			"action", e.Action,
			"occurred_at", e.OccurredAt)
	}
	return nil
}

// Close implements Publisher
func (*LogPublisher) Close() error {
	return nil
}
