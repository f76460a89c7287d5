package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/minibus-booking/internal/logger"
)

// Consumer listens to the booking queues and appends the rendered
// notifications to LogDir/notifications.log.  There is no real SMS or
// email gateway; the log file is the outbox.
type Consumer struct {
    URL    string
    LogDir string
    Log    *logger.Logger
    now    func() time.Time
}

// NewConsumer returns a Consumer for the broker at url.
func NewConsumer(url, logDir string, log *logger.Logger) *Consumer {
    if logDir == "" {
        logDir = "logs"
    }
    return &Consumer{URL: url, LogDir: logDir, Log: log, now: time.Now}
}

// Run dials the broker and consumes until ctx is cancelled, reconnecting
// with exponential backoff (capped at 30s) whenever the connection drops.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.Log.Warn("notification consumer: dial failed", "error", err, "retry_in", backoff.String())
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.Log.Warn("notification consumer: consume loop ended, reconnecting", "error", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

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

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Log.Warn("notification consumer: set QoS failed", "error", err)
    }

    type delivery struct {
        queue string
        amqp.Delivery
    }
    merged := make(chan delivery)
    done := make(chan struct{})
    defer close(done)

    for _, name := range []string{BookingConfirmedQueue, PaymentLinkQueue} {
        if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
            return fmt.Errorf("queue declare %s: %w", name, err)
        }
        msgs, err := ch.Consume(name, "", false, false, false, false, nil)
        if err != nil {
            return fmt.Errorf("queue consume %s: %w", name, err)
        }
        go func(name string, msgs <-chan amqp.Delivery) {
            for d := range msgs {
                select {
                case merged <- delivery{queue: name, Delivery: d}:
                case <-done:
                    return
                }
            }
        }(name, msgs)
    }

    closed := ch.NotifyClose(make(chan *amqp.Error, 1))
    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case amqpErr := <-closed:
            if amqpErr != nil {
                return amqpErr
            }
            return errors.New("channel closed")
        case d := <-merged:
            if err := c.handleMessage(d.queue, d.Body); err != nil {
                c.Log.Error("notification consumer: handle message failed", "queue", d.queue, "error", err)
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// handleMessage decodes a delivery from queue and appends its
// notifications.
func (c *Consumer) handleMessage(queue string, body []byte) error {
    at := c.now().UTC().Format(time.RFC3339)
    switch queue {
    case BookingConfirmedQueue:
        var ev BookingConfirmedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return fmt.Errorf("unmarshal: %w", err)
        }
        notes := BookingConfirmedNotifications(ev)
        if err := appendNotifications(c.LogDir, at, notes); err != nil {
            return err
        }
        c.Log.Info("notifications sent", "booking_id", ev.BookingID, "count", len(notes))
        return nil
    case PaymentLinkQueue:
        var ev PaymentLinkEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return fmt.Errorf("unmarshal: %w", err)
        }
        if ev.Phone == "" || ev.Link == "" {
            return fmt.Errorf("payment link for %s is missing phone or link", ev.BookingID)
        }
        if err := appendNotifications(c.LogDir, at, []Notification{PaymentLinkNotification(ev)}); err != nil {
            return err
        }
        c.Log.Info("payment link sent", "booking_id", ev.BookingID)
        return nil
    default:
        return fmt.Errorf("unknown queue %q", queue)
    }
}
