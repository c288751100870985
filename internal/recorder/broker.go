package recorder

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
)

// amqpChannel is the part of *amqp.Channel a Broker publishes through.
type amqpChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Broker publishes each record to a topic exchange with routing key
// "record.<kind>", so other services can follow pipeline activity.
type Broker struct {
	Exchange string
	// open returns a channel for one publish; the broker closes it.
	open     func() (amqpChannel, error)
}

// NewBroker declares the exchange and returns a Broker publishing to it.
func NewBroker(conn *amqp.Connection, exchange string) (*Broker, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &Broker{
		Exchange: exchange,
		open:     func() (amqpChannel, error) { return conn.Channel() },
	}, nil
}

func (b *Broker) Append(_ context.Context, rec Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	ch, err := b.open()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	return ch.Publish(
		b.Exchange,
		"record."+rec.Kind,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			MessageId:   rec.ID.String(),
			Timestamp:   rec.CreatedAt,
			Body:        body,
		},
	)
}
