// Package service publishes domain events to RabbitMQ.  Errors are logged
// and returned so callers can ignore failures without interrupting the
// request that produced the event.
package service

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/minibus-booking/internal/logger"
    q "github.com/iliyamo/minibus-booking/internal/queue"
)

// Publisher sends booking events to the broker at URL.  Each publish opens
// its own connection; event volume is one message per booking.
type Publisher struct {
    URL string
    Log *logger.Logger
}

// NewPublisher returns a Publisher for url.
func NewPublisher(url string, log *logger.Logger) *Publisher {
    return &Publisher{URL: url, Log: log}
}

// PublishBookingConfirmed publishes ev to the booking.confirmed queue.
func (p *Publisher) PublishBookingConfirmed(ctx context.Context, ev q.BookingConfirmedEvent) error {
    return p.publish(ctx, q.BookingConfirmedQueue, ev)
}

// PublishPaymentLink publishes ev to the booking.payment_link queue.
func (p *Publisher) PublishPaymentLink(ctx context.Context, ev q.PaymentLinkEvent) error {
    return p.publish(ctx, q.PaymentLinkQueue, ev)
}

func (p *Publisher) publish(ctx context.Context, queue string, v any) error {
    conn, err := amqp.Dial(p.URL)
    if err != nil {
        p.Log.Warn("rabbitmq: dial failed", "queue", queue, "error", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.Log.Warn("rabbitmq: channel open failed", "queue", queue, "error", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    // durable so messages survive broker restarts
    if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
        p.Log.Warn("rabbitmq: queue declare failed", "queue", queue, "error", err)
        return err
    }

    body, err := json.Marshal(v)
    if err != nil {
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
        p.Log.Warn("rabbitmq: publish failed", "queue", queue, "error", err)
        return err
    }
    return nil
}
