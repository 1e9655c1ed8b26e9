package rabbitMQ

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/renatodap/snapmod-sub000/internal/pkg/events"
	"github.com/sirupsen/logrus"
)

var ErrDeliveriesClosed = errors.New("rabbitmq delivery channel closed")

// Consumer reads one routing key off the exchange through a durable queue.
type Consumer struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	queue      string
	deliveries <-chan amqp.Delivery
}

// NewConsumer declares the exchange and queue, binds the queue to
// routingKey and starts consuming with manual acks.
func NewConsumer(config RabbitMQConfig, routingKey string) (*Consumer, error) {
	if config.Queue == "" {
		return nil, errors.New("rabbitmq queue name is empty")
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

	deliveries, err := subscribe(channel, config, routingKey)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	return &Consumer{
		conn:       conn,
		channel:    channel,
		queue:      config.Queue,
		deliveries: deliveries,
	}, nil
}

func subscribe(channel *amqp.Channel, config RabbitMQConfig, routingKey string) (<-chan amqp.Delivery, error) {
	if err := declareExchange(channel, config.ExchangeName); err != nil {
		return nil, err
	}

	q, err := channel.QueueDeclare(
		config.Queue, // name
		true,         // durable
		false,        // delete when unused
		false,        // exclusive
		false,        // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := channel.QueueBind(q.Name, routingKey, config.ExchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	// one unacked render at a time
	if err := channel.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	deliveries, err := channel.Consume(
		q.Name, // queue
		"",     // consumer
		false,  // auto-ack
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register consumer: %w", err)
	}
	return deliveries, nil
}

// Run handles deliveries until ctx is cancelled. A failed delivery is
// rejected without requeue so a poison message cannot loop.
func (c *Consumer) Run(ctx context.Context, handle events.Handler) error {
	return run(ctx, c.deliveries, c.queue, handle)
}

func run(ctx context.Context, deliveries <-chan amqp.Delivery, queue string, handle events.Handler) error {
	log := logrus.WithField("queue", queue)
	log.Info("consumer started")

	for {
		select {
		case <-ctx.Done():
			log.Info("consumer stopped")
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return ErrDeliveriesClosed
			}
			settle(ctx, log.WithField("delivery_tag", d.DeliveryTag), d, handle)
		}
	}
}

func settle(ctx context.Context, log *logrus.Entry, d amqp.Delivery, handle events.Handler) {
	if err := handle(ctx, d.Body); err != nil {
		log.Errorf("failed to handle message: %v", err)
		if err := d.Nack(false, false); err != nil {
			log.Errorf("failed to reject message: %v", err)
		}
		return
	}
	if err := d.Ack(false); err != nil {
		log.Errorf("failed to ack message: %v", err)
		return
	}
	log.Debug("message handled")
}

func (c *Consumer) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
