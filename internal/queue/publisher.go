package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/swiftseat/coach-booking/internal/logger"
)

// dialTimeout bounds the broker handshake on the booking request path.
const dialTimeout = 2 * time.Second

// Publisher sends booking events to RabbitMQ, opening a connection per
// event.
type Publisher struct {
	url string
	log logger.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log logger.Logger) *Publisher {
	if log == nil {
		log = logger.NewNop()
	}
	return &Publisher{url: url, log: log}
}

// PublishBookingCreated publishes ev to the booking.created queue as a
// persistent JSON message.  Failures are returned to the caller, which
// decides whether to log them.
func (p *Publisher) PublishBookingCreated(ctx context.Context, ev BookingCreatedEvent) error {
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declare(ch); err != nil {
		return fmt.Errorf("declare %s: %w", BookingCreatedQueue, err)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.Reference,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", BookingCreatedQueue, false, false, pub); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Reference, err)
	}
	p.log.Debug("booking event published", "reference", ev.Reference)
	return nil
}

// declare creates the durable booking queue if it does not exist.
func declare(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(BookingCreatedQueue, true, false, false, false, nil)
	return err
}
