package rabbitMQ

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/renatodap/snapmod-sub000/internal/pkg/events"
)

type RabbitMQConfig struct {
	URL          string
	ExchangeName string
	// Queue is the durable queue render tasks are consumed from.
	Queue string
}

// RabbitMQ publishes events to a durable topic exchange, the topic becoming
// the routing key.
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  RabbitMQConfig
}

func NewRabbitMQ(config RabbitMQConfig) (events.Publisher, error) {
	if config.URL == "" {
		return events.NewUnconfigured("no rabbitmq url configured"), nil
	}

	conn, err := amqp.Dial(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareExchange(channel, config.ExchangeName); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	return &RabbitMQ{conn: conn, channel: channel, config: config}, nil
}

func declareExchange(channel *amqp.Channel, name string) error {
	err := channel.ExchangeDeclare(
		name,    // name
		"topic", // type
		true,    // durable
		false,   // auto-deleted
		false,   // internal
		false,   // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	return nil
}

func (r *RabbitMQ) Publish(ctx context.Context, topic string, message interface{}) error {
	key, body, err := events.Encode(message)
	if err != nil {
		return err
	}

	err = r.channel.PublishWithContext(
		ctx,
		r.config.ExchangeName, // exchange
		topic,                 // routing key
		false,                 // mandatory
		false,                 // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: string(key),
			Body:          body,
			DeliveryMode:  amqp.Persistent,
			Timestamp:     time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

func (r *RabbitMQ) State() events.State {
	if r.conn == nil || r.conn.IsClosed() {
		return events.Disconnected
	}
	return events.Connected
}

func (r *RabbitMQ) Close() error {
	var errs []error

	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing RabbitMQ: %v", errs)
	}

	return nil
}
