package pubsub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// InMemoryPubSub wraps Watermill's gochannel pub/sub with an in-memory
// pointer cache so payloads keep their Go types across the bridge and late
// subscribers can replay a topic's recent messages.
type InMemoryPubSub struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     watermill.LoggerAdapter
	ctx        context.Context
	cancel     context.CancelFunc

	// pointerMap stores original messages by Watermill UUID; topicCache
	// keeps the per-topic ID sequence for replay.
	pointerMap  map[string]*Message
	topicCache  map[string][]string
	cacheMu     sync.RWMutex
	maxCache    int
	consumerBuf int

	subscriptions map[string]context.CancelFunc
	chanMap       map[string]Subscription
	subMu         sync.Mutex
}

// NewInMemoryPubSub creates a Watermill-backed PubSub with replay support.
func NewInMemoryPubSub() *InMemoryPubSub {
	logger := watermill.NewStdLogger(false, false)

	goChannel := gochannel.NewGoChannel(
		gochannel.Config{
			BlockPublishUntilSubscriberAck: false,
		},
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())

	return &InMemoryPubSub{
		publisher:     goChannel,
		subscriber:    goChannel,
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
		pointerMap:    make(map[string]*Message),
		topicCache:    make(map[string][]string),
		maxCache:      512,
		consumerBuf:   256,
		subscriptions: make(map[string]context.CancelFunc),
		chanMap:       make(map[string]Subscription),
	}
}

// SetCacheSize bounds the per-topic replay cache.
func (ps *InMemoryPubSub) SetCacheSize(size int) {
	ps.cacheMu.Lock()
	defer ps.cacheMu.Unlock()
	ps.maxCache = size
}

// Publish publishes a message without blocking on consumers.
func (ps *InMemoryPubSub) Publish(topic string, msg *Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	msgID := watermill.NewUUID()

	ps.cacheMu.Lock()
	ps.pointerMap[msgID] = msg
	ps.topicCache[topic] = append(ps.topicCache[topic], msgID)
	if len(ps.topicCache[topic]) > ps.maxCache {
		oldID := ps.topicCache[topic][0]
		ps.topicCache[topic] = ps.topicCache[topic][1:]
		delete(ps.pointerMap, oldID)
	}
	ps.cacheMu.Unlock()

	wMsg := message.NewMessage(msgID, []byte(msgID))
	if err := ps.publisher.Publish(topic, wMsg); err != nil {
		return fmt.Errorf("watermill publish failed: %w", err)
	}
	return nil
}

// Subscribe subscribes to a topic, replaying cached messages first.
func (ps *InMemoryPubSub) Subscribe(topic, consumerID string) (Subscription, error) {
	key := consumerID + ":" + topic
	ps.subMu.Lock()
	if sub, exists := ps.chanMap[key]; exists {
		ps.subMu.Unlock()
		return sub, nil
	}
	ps.subMu.Unlock()

	subCtx, subCancel := context.WithCancel(ps.ctx)

	ps.subMu.Lock()
	ps.subscriptions[key] = subCancel
	ps.subMu.Unlock()

	messages, err := ps.subscriber.Subscribe(subCtx, topic)
	if err != nil {
		subCancel()
		ps.subMu.Lock()
		delete(ps.subscriptions, key)
		ps.subMu.Unlock()
		return nil, fmt.Errorf("watermill subscribe failed: %w", err)
	}

	outChan := make(chan *Message, ps.consumerBuf)

	// Replay phase: deliver cached messages before live ones.
	ps.cacheMu.RLock()
	var replay []*Message
	for _, id := range ps.topicCache[topic] {
		if m, exists := ps.pointerMap[id]; exists {
			replay = append(replay, m)
		}
	}
	ps.cacheMu.RUnlock()

	for _, m := range replay {
		select {
		case outChan <- m:
		case <-subCtx.Done():
			return nil, subCtx.Err()
		case <-time.After(100 * time.Millisecond):
			// consumer not reading; drop rather than block
		}
	}

	go func() {
		defer close(outChan)
		for {
			select {
			case <-subCtx.Done():
				return
			case wMsg, ok := <-messages:
				if !ok {
					return
				}
				ps.cacheMu.RLock()
				found, exists := ps.pointerMap[wMsg.UUID]
				ps.cacheMu.RUnlock()
				if exists {
					select {
					case outChan <- found:
						wMsg.Ack()
					case <-subCtx.Done():
						return
					}
				} else {
					wMsg.Ack()
				}
			}
		}
	}()

	sub := &subscription{
		msgChan: outChan,
		ctx:     subCtx,
		cancel:  subCancel,
	}

	ps.subMu.Lock()
	ps.chanMap[key] = sub
	ps.subMu.Unlock()

	return sub, nil
}

// Unsubscribe stops one consumer's subscription.
func (ps *InMemoryPubSub) Unsubscribe(topic, consumerID string) error {
	ps.subMu.Lock()
	defer ps.subMu.Unlock()

	key := consumerID + ":" + topic
	if cancel, exists := ps.subscriptions[key]; exists {
		cancel()
		delete(ps.subscriptions, key)
		delete(ps.chanMap, key)
	}
	return nil
}

// Close shuts down the whole pub/sub system.
func (ps *InMemoryPubSub) Close() error {
	ps.cancel()
	return ps.publisher.Close()
}
