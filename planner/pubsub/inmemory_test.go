package pubsub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub Subscription) *Message {
	t.Helper()
	select {
	case msg := <-sub.Chan():
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestPublishSubscribe(t *testing.T) {
	ps := NewInMemoryPubSub()
	defer ps.Close()

	sub, err := ps.Subscribe("trip.events.abc", "ui")
	require.NoError(t, err)

	payload := map[string]any{"type": "cart_updated"}
	require.NoError(t, ps.Publish("trip.events.abc", &Message{Payload: payload}))

	msg := receive(t, sub)
	got, ok := msg.Payload.(map[string]any)
	require.True(t, ok, "payload keeps its Go type across the bridge")
	assert.Equal(t, "cart_updated", got["type"])
	assert.False(t, msg.Timestamp.IsZero())
}

func TestLateSubscriberReplaysCache(t *testing.T) {
	ps := NewInMemoryPubSub()
	defer ps.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, ps.Publish("trip.events.late", &Message{Payload: i}))
	}

	sub, err := ps.Subscribe("trip.events.late", "ui")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		msg := receive(t, sub)
		assert.Equal(t, i, msg.Payload)
	}
}

func TestSubscribeIsIdempotentPerConsumer(t *testing.T) {
	ps := NewInMemoryPubSub()
	defer ps.Close()

	first, err := ps.Subscribe("topic", "ui")
	require.NoError(t, err)
	second, err := ps.Subscribe("topic", "ui")
	require.NoError(t, err)
	assert.Same(t, first.(*subscription), second.(*subscription))

	other, err := ps.Subscribe("topic", "cli")
	require.NoError(t, err)
	assert.NotSame(t, first.(*subscription), other.(*subscription))
}

func TestCacheEviction(t *testing.T) {
	ps := NewInMemoryPubSub()
	defer ps.Close()
	ps.SetCacheSize(2)

	for i := 0; i < 5; i++ {
		require.NoError(t, ps.Publish("topic", &Message{Payload: i}))
	}

	sub, err := ps.Subscribe("topic", "ui")
	require.NoError(t, err)

	assert.Equal(t, 3, receive(t, sub).Payload)
	assert.Equal(t, 4, receive(t, sub).Payload)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	ps := NewInMemoryPubSub()
	defer ps.Close()

	sub, err := ps.Subscribe("topic", "ui")
	require.NoError(t, err)
	require.NoError(t, ps.Unsubscribe("topic", "ui"))

	select {
	case <-sub.Chan():
		// channel closes once the subscription context is cancelled
	case <-time.After(time.Second):
		t.Fatal("subscription channel not closed after unsubscribe")
	}
}

func TestIndependentConsumersEachReceive(t *testing.T) {
	ps := NewInMemoryPubSub()
	defer ps.Close()

	ui, err := ps.Subscribe("topic", "ui")
	require.NoError(t, err)
	cli, err := ps.Subscribe("topic", "cli")
	require.NoError(t, err)

	require.NoError(t, ps.Publish("topic", &Message{Payload: "hello"}))

	assert.Equal(t, "hello", receive(t, ui).Payload)
	assert.Equal(t, "hello", receive(t, cli).Payload)
}
