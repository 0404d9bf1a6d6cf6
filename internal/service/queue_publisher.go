// Package service publishes domain events to RabbitMQ.  Publishing is best
// effort: failures are logged and returned, and callers carry on.
package service

import (
    "context"
    "encoding/json"
    "log/slog"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends an event to a named queue.
type Publisher interface {
    Publish(ctx context.Context, queue string, event any) error
}

// NopPublisher drops every event.  Used when QUEUE_ENABLED is false.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

// defaultDialTimeout caps connect plus handshake for one publish.
const defaultDialTimeout = 2 * time.Second

// RabbitPublisher dials the broker per publish.  Event volume is one per
// footprint or support reply, so no connection is held between calls.
type RabbitPublisher struct {
    url         string
    dialTimeout time.Duration
    logger      *slog.Logger
}

func NewRabbitPublisher(url string, logger *slog.Logger) *RabbitPublisher {
    return &RabbitPublisher{url: url, dialTimeout: defaultDialTimeout, logger: logger}
}

// dial connects within dialTimeout, or sooner when ctx has an earlier
// deadline.  amqp.Dial alone would wait for the library's 30s default.
func (p *RabbitPublisher) dial(ctx context.Context) (*amqp.Connection, error) {
    if err := ctx.Err(); err != nil {
        return nil, err
    }
    timeout := p.dialTimeout
    if dl, ok := ctx.Deadline(); ok {
        if left := time.Until(dl); left < timeout {
            timeout = left
        }
    }
    if timeout <= 0 {
        return nil, context.DeadlineExceeded
    }
    return amqp.DialConfig(p.url, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      amqp.DefaultDial(timeout),
    })
}

// Publish declares queue (durable, idempotent) and sends event as a
// persistent JSON message through the default exchange.
func (p *RabbitPublisher) Publish(ctx context.Context, queue string, event any) error {
    body, err := json.Marshal(event)
    if err != nil {
        p.logger.Error("rabbitmq: marshal event failed", "queue", queue, "error", err)
        return err
    }

    conn, err := p.dial(ctx)
    if err != nil {
        p.logger.Warn("rabbitmq: dial failed", "queue", queue, "error", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.logger.Warn("rabbitmq: channel open failed", "queue", queue, "error", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
        p.logger.Warn("rabbitmq: queue declare failed", "queue", queue, "error", err)
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
        p.logger.Warn("rabbitmq: publish failed", "queue", queue, "error", err)
        return err
    }
    return nil
}
