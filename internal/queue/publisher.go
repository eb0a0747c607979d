package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/kirinyoku/canteen-go/internal/domain"
)

// AlertPublisher publishes CascadeFailedEvents to a durable queue. Alerts are
// rare, so each publish dials its own connection.
type AlertPublisher struct {
	url   string
	queue string
	log   *slog.Logger
}

func NewAlertPublisher(url, queue string, log *slog.Logger) *AlertPublisher {
	if queue == "" {
		queue = DefaultAlertQueue
	}

	if log == nil {
		log = slog.Default()
	}

	return &AlertPublisher{url: url, queue: queue, log: log}
}

func (p *AlertPublisher) PublishCascadeFailed(ctx context.Context, ev domain.CascadeFailedEvent) error {
	const op = "queue.AlertPublisher.PublishCascadeFailed"

	body, err := encodeAlert(ev)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("%s: dial: %w", op, err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("%s: channel: %w", op, err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := declare(ch, p.queue); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: publish: %w", op, err)
	}

	p.log.DebugContext(ctx, "cascade alert published", "queue", p.queue, "operation", ev.Operation)

	return nil
}

func declare(ch *amqp.Channel, queue string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return q, fmt.Errorf("queue declare: %w", err)
	}
	return q, nil
}
