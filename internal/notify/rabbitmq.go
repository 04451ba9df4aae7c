package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/stacklok/oparl-sync/internal/config"
)

const confirmTimeout = 10 * time.Second

// RabbitMQPublisher publishes change events to a durable direct exchange.
// The channel runs in confirm mode; Publish returns only after the broker
// acknowledged every message of the batch.
type RabbitMQPublisher struct {
	mu         sync.Mutex
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
}

// NewRabbitMQPublisher connects to the broker and declares the exchange.
// When a queue name is configured the queue is declared and bound as well.
func NewRabbitMQPublisher(cfg config.RabbitMQConfig) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	closeAll := func() {
		_ = ch.Close()
		_ = conn.Close()
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}

	if cfg.QueueName != "" {
		q, err := ch.QueueDeclare(cfg.QueueName, true, false, false, false, nil)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.QueueName, err)
		}
		if err := ch.QueueBind(q.Name, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to bind queue %s: %w", cfg.QueueName, err)
		}
	}

	if err := ch.Confirm(false); err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	slog.Info("Connected to RabbitMQ",
		"exchange", cfg.Exchange,
		"queue", cfg.QueueName,
		"routing_key", cfg.RoutingKey)

	return &RabbitMQPublisher{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
	}, nil
}

// Publish implements Publisher
func (p *RabbitMQPublisher) Publish(ctx context.Context, events []ChangeEvent) error {
	if len(events) == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	confirms := make([]*amqp.DeferredConfirmation, 0, len(events))
	for _, e := range events {
		body, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal change event %s: %w", e.ID, err)
		}

		confirm, err := p.channel.PublishWithDeferredConfirmWithContext(ctx, p.exchange, p.routingKey, false, false,
			amqp.Publishing{
				DeliveryMode: amqp.Persistent,
				ContentType:  "application/json",
				MessageId:    e.ID.String(),
				Type:         e.Action,
				Timestamp:    e.OccurredAt,
				Body:         body,
			})
		if err != nil {
			return fmt.Errorf("failed to publish change event %s: %w", e.ID, err)
		}
		confirms = append(confirms, confirm)
	}

	waitCtx, cancel := context.WithTimeout(ctx, confirmTimeout)
	defer cancel()
	for _, confirm := range confirms {
		acked, err := confirm.WaitContext(waitCtx)
		if err != nil {
			return fmt.Errorf("failed waiting for publisher confirm: %w", err)
		}
		if !acked {
			return errors.New("broker rejected change event")
		}
	}

	slog.Debug("Published change events", "count", len(events), "exchange", p.exchange)
	return nil
}

// Close implements Publisher
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
