package pubsub

import (
	"context"
	"time"
)

// Message is one published event with its payload and metadata.
type Message struct {
	Payload   any       // data being transmitted
	Timestamp time.Time // when the message was published
}

// Subscription is a consumer's connection to a topic.
type Subscription interface {
	Chan() <-chan *Message
	Close() error
}

// PubSub is the transport carrying session progress events. Publish must
// never block the publisher.
type PubSub interface {
	Publish(topic string, msg *Message) error
	Subscribe(topic, consumerID string) (Subscription, error)
	Unsubscribe(topic, consumerID string) error
	Close() error
}

type subscription struct {
	msgChan chan *Message
	ctx     context.Context
	cancel  context.CancelFunc
}

func (s *subscription) Chan() <-chan *Message {
	return s.msgChan
}

func (s *subscription) Close() error {
	s.cancel()
	return nil
}
