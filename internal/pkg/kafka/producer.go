package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/renatodap/snapmod-sub000/internal/pkg/events"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type kafkaProducer struct {
	writer *kafka.Writer
}

// NewProducer connects to the first reachable broker and makes sure topics
// exist. Without brokers it returns the unconfigured publisher; an
// unreachable cluster is an error, never a silent no-op.
func NewProducer(brokers []string, topics ...string) (events.Publisher, error) {
	if len(brokers) == 0 {
		return events.NewUnconfigured("no kafka brokers configured"), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return nil, fmt.Errorf("kafka connection failed: %w", err)
	}
	defer conn.Close()

	if len(topics) > 0 {
		configs := make([]kafka.TopicConfig, len(topics))
		for i, topic := range topics {
			configs[i] = kafka.TopicConfig{
				Topic:             topic,
				NumPartitions:     1,
				ReplicationFactor: 1,
			}
		}
		if err := conn.CreateTopics(configs...); err != nil {
			logrus.Warnf("could not create topics (might already exist): %v", err)
		}
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	logrus.WithField("brokers", brokers).Info("connected to kafka")
	return &kafkaProducer{writer: writer}, nil
}

func (p *kafkaProducer) Publish(ctx context.Context, topic string, message interface{}) error {
	key, value, err := events.Encode(message)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
		Time:  time.Now(),
	})
	if err != nil {
		logrus.WithField("topic", topic).Errorf("failed to write message to kafka: %v", err)
		return err
	}

	logrus.WithField("topic", topic).Debug("message sent")
	return nil
}

func (p *kafkaProducer) State() events.State { return events.Connected }

func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}
