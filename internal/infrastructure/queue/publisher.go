// Package queue implements the NotificationQueue port on RabbitMQ.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/blazechat/chat-api/internal/core/ports"
)

// Publisher pushes notification events onto a durable queue with the
// default exchange. Messages are persistent; a consumer working the queue
// gives at-least-once delivery.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	log     zerolog.Logger
}

// envelope is the wire format consumed by the notification workers.
type envelope struct {
	Event     string    `json:"event"`
	EmittedAt time.Time `json:"emitted_at"`
	Payload   any       `json:"payload"`
}

// NewPublisher dials the broker and declares the queue. The queue is
// durable so queued notifications survive a broker restart.
func NewPublisher(url, queueName string, log zerolog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp queue declare: %w", err)
	}

	return &Publisher{conn: conn, channel: ch, queue: queueName, log: log}, nil
}

// Enqueue publishes one event. Callers that must not fail on broker errors
// log and drop; that decision belongs to them, not here.
func (p *Publisher) Enqueue(ctx context.Context, event string, payload any) error {
	body, err := json.Marshal(envelope{
		Event:     event,
		EmittedAt: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		return fmt.Errorf("marshal event %q: %w", event, err)
	}

	err = p.channel.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event %q: %w", event, err)
	}

	p.log.Debug().Str("event", event).Str("queue", p.queue).Msg("notification enqueued")
	return nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	if err := p.channel.Close(); err != nil {
		_ = p.conn.Close()
		return err
	}
	return p.conn.Close()
}

var _ ports.NotificationQueue = (*Publisher)(nil)
