package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/renatodap/snapmod-sub000/internal/pkg/events"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type Consumer struct {
	reader *kafka.Reader
	topic  string
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})
	return &Consumer{reader: reader, topic: topic}
}

// Run reads messages until ctx is cancelled. Messages are handled one at a
// time, in partition order. A failed message is logged and committed anyway
// so a poison message cannot stall the group.
func (c *Consumer) Run(ctx context.Context, handle events.Handler) error {
	log := logrus.WithField("topic", c.topic)
	log.Info("consumer started")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				log.Info("consumer stopped")
				return nil
			}
			log.Errorf("error reading message from kafka: %v", err)
			continue
		}

		entry := log.WithFields(logrus.Fields{
			"partition": msg.Partition,
			"offset":    msg.Offset,
		})
		if err := handle(ctx, msg.Value); err != nil {
			entry.Errorf("failed to handle message: %v", err)
		} else {
			entry.Debug("message handled")
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			entry.Errorf("failed to commit message: %v", err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
