package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keyedMessage struct {
	Session string `json:"session"`
}

func (m keyedMessage) EventKey() string { return m.Session }

func TestUnconfiguredPublisher(t *testing.T) {
	p := NewUnconfigured("no brokers")

	assert.Equal(t, Unconfigured, p.State())
	assert.Equal(t, "unconfigured", p.State().String())

	err := p.Publish(context.Background(), "topic", map[string]string{"a": "b"})
	assert.ErrorIs(t, err, ErrUnconfigured)
	assert.ErrorContains(t, err, "no brokers")
	assert.NoError(t, p.Close())
}

func TestEncode(t *testing.T) {
	key, value, err := Encode(keyedMessage{Session: "s-1"})
	require.NoError(t, err)
	assert.Equal(t, []byte("s-1"), key)
	assert.JSONEq(t, `{"session":"s-1"}`, string(value))

	key, _, err = Encode(map[string]int{"n": 1})
	require.NoError(t, err)
	assert.Nil(t, key)

	_, _, err = Encode(make(chan int))
	assert.Error(t, err)
}
