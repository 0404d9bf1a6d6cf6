// Package queue also contains the background consumer that listens to the
// domain event queues and appends one line per event to logs/activity.log.
package queue

import (
    "context"       // context stops the consumer on shutdown
    "encoding/json" // json decodes event bodies
    "errors"        // errors reports a clean connection close
    "fmt"           // fmt renders log lines
    "log/slog"      // slog reports connection trouble
    "os"            // os appends to the activity log
    "path/filepath" // filepath joins the log path
    "time"          // time drives backoff

    amqp "github.com/rabbitmq/amqp091-go" // amqp is the RabbitMQ client
)

const activityLogName = "activity.log" // created under ACTIVITY_LOG_DIR

// StartActivityConsumer connects to RabbitMQ, declares the event queues
// (durable) and consumes them until ctx is cancelled.  Lost connections are
// redialled with exponential backoff.  Messages that cannot be handled are
// rejected without requeue so a poison message cannot spin the loop.
func StartActivityConsumer(ctx context.Context, url, logDir string, logger *slog.Logger) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            logger.Warn("activity consumer: dial failed", "error", err, "retry_in", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second { // cap around half a minute
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // connected, reset for the next outage

        err = consumeLoop(ctx, conn, logDir, logger)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        logger.Warn("activity consumer: consume loop ended, reconnecting", "error", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

// sleep waits d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

// consumeLoop fans both queues into one select loop and returns when the
// connection drops or ctx ends.
func consumeLoop(ctx context.Context, conn *amqp.Connection, logDir string, logger *slog.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil { // prefetch, not fatal
        logger.Warn("activity consumer: set QoS failed", "error", err)
    }

    deliveries := make(chan amqp.Delivery)
    done := make(chan struct{}) // stops the forwarders when the loop returns
    defer close(done)
    for _, name := range []string{FootprintRecordedQueue, SupportReplyQueue} {
        if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
            return fmt.Errorf("queue declare %s: %w", name, err)
        }
        msgs, err := ch.Consume(name, "", false, false, false, false, nil) // manual ack
        if err != nil {
            return fmt.Errorf("queue consume %s: %w", name, err)
        }
        go func() {
            for d := range msgs {
                select {
                case deliveries <- d:
                case <-done:
                    return
                }
            }
        }()
    }

    closed := conn.NotifyClose(make(chan *amqp.Error, 1))
    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case err := <-closed:
            if err == nil {
                return errors.New("connection closed")
            }
            return err
        case d := <-deliveries:
            if err := appendActivity(logDir, d.RoutingKey, d.Body, time.Now()); err != nil {
                logger.Error("activity consumer: handle message failed", "queue", d.RoutingKey, "error", err)
                _ = d.Nack(false, false) // drop, never requeue
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// appendActivity renders one event as a single log line.
func appendActivity(dir, queue string, body []byte, now time.Time) error {
    var line string
    switch queue {
    case FootprintRecordedQueue:
        var ev FootprintRecordedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return fmt.Errorf("unmarshal: %w", err)
        }
        line = fmt.Sprintf("[%s] Footprint recorded | footprint_id=%d | user_id=%d | period=%s | transport=%q | total=%.2f | category=%s\n",
            ev.RecordedAt, ev.FootprintID, ev.UserID, ev.Period, ev.Transport, ev.TotalEmissions, ev.Category)
    case SupportReplyQueue:
        var ev SupportReplyEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return fmt.Errorf("unmarshal: %w", err)
        }
        line = fmt.Sprintf("[%s] Support reply | ticket_id=%d | reply_id=%d | staff_id=%d\n",
            ev.RepliedAt, ev.TicketID, ev.ReplyID, ev.StaffID)
    default:
        return fmt.Errorf("unexpected queue %q at %s", queue, now.UTC().Format(time.RFC3339))
    }

    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(filepath.Join(dir, activityLogName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}
