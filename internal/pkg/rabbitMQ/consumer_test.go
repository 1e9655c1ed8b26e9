package rabbitMQ

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAck struct {
	mu     sync.Mutex
	acked  []uint64
	nacked []uint64
}

func (a *recordingAck) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *recordingAck) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked = append(a.nacked, tag)
	return nil
}

func (a *recordingAck) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func TestRunSettlesDeliveries(t *testing.T) {
	ack := &recordingAck{}
	deliveries := make(chan amqp.Delivery, 3)
	deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte("ok")}
	deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 2, Body: []byte("bad")}
	deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 3, Body: []byte("ok")}
	close(deliveries)

	var handled []string
	err := run(context.Background(), deliveries, "render", func(ctx context.Context, body []byte) error {
		handled = append(handled, string(body))
		if string(body) == "bad" {
			return errors.New("cannot render")
		}
		return nil
	})

	assert.ErrorIs(t, err, ErrDeliveriesClosed)
	assert.Equal(t, []string{"ok", "bad", "ok"}, handled)
	assert.Equal(t, []uint64{1, 3}, ack.acked)
	assert.Equal(t, []uint64{2}, ack.nacked)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	deliveries := make(chan amqp.Delivery)

	done := make(chan error, 1)
	go func() {
		done <- run(ctx, deliveries, "render", func(context.Context, []byte) error { return nil })
	}()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestNewConsumerNeedsQueue(t *testing.T) {
	_, err := NewConsumer(RabbitMQConfig{URL: "amqp://localhost"}, "render.tasks")
	assert.ErrorContains(t, err, "queue name is empty")
}
