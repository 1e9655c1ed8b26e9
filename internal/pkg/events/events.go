// Package events defines the publisher used to announce committed versions
// and queue background renders.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnconfigured = errors.New("event publisher is not configured")

// State tells a disabled bus apart from a working one.
type State int

const (
	Unconfigured State = iota
	Connected
	// Disconnected is a configured bus whose connection has been lost.
	Disconnected
)

func (s State) String() string {
	switch s {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	default:
		return "unconfigured"
	}
}

type Publisher interface {
	Publish(ctx context.Context, topic string, message interface{}) error
	State() State
	Close() error
}

// Handler processes one message body taken off the bus.
type Handler func(ctx context.Context, body []byte) error

// Consumer feeds the messages of one topic to a handler until ctx is
// cancelled. Run returns nil on cancellation.
type Consumer interface {
	Run(ctx context.Context, handle Handler) error
	Close() error
}

// Keyed messages are partitioned by their key, so events of one session keep
// their order.
type Keyed interface {
	EventKey() string
}

// Encode serialises a message and returns its partition key.
func Encode(message interface{}) (key, value []byte, err error) {
	value, err = json.Marshal(message)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	if k, ok := message.(Keyed); ok && k.EventKey() != "" {
		key = []byte(k.EventKey())
	}
	return key, value, nil
}

type unconfigured struct {
	reason string
}

// NewUnconfigured returns the publisher used when no bus is set up. Publish
// fails with ErrUnconfigured instead of pretending to succeed.
func NewUnconfigured(reason string) Publisher {
	return unconfigured{reason: reason}
}

func (u unconfigured) Publish(ctx context.Context, topic string, message interface{}) error {
	return fmt.Errorf("%w: %s", ErrUnconfigured, u.reason)
}

func (unconfigured) State() State { return Unconfigured }

func (unconfigured) Close() error { return nil }
