package message_broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/satriahrh/cocoa-fruit/shagen/domain"
	"github.com/satriahrh/cocoa-fruit/shagen/utils/log"
	"go.uber.org/zap"
)

const DefaultCapacity = 256

// ChannelMessageBroker implements MessageBroker using Go channels
type ChannelMessageBroker struct {
	topics   map[string]chan domain.Message
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewChannelMessageBroker creates a new channel-based message broker whose
// topic channels buffer up to capacity messages.
func NewChannelMessageBroker(capacity int) *ChannelMessageBroker {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &ChannelMessageBroker{
		topics:   make(map[string]chan domain.Message),
		capacity: capacity,
	}
}

// makeKey creates a unique key for topic and routingKey
func makeKey(topic, routingKey string) string {
	return topic + ":" + routingKey
}

// channelFor returns the channel for key, creating it when missing. Callers
// must hold the write lock.
func (b *ChannelMessageBroker) channelFor(key string) chan domain.Message {
	channel, exists := b.topics[key]
	if !exists {
		channel = make(chan domain.Message, b.capacity)
		b.topics[key] = channel
	}
	return channel
}

// Publish sends a message to a specific topic and routing key. It never
// blocks: a full channel is reported as an error.
func (b *ChannelMessageBroker) Publish(ctx context.Context, topic string, routingKey string, message []byte) error {
	key := makeKey(topic, routingKey)

	b.mu.RLock()
	channel, exists := b.topics[key]
	closed := b.closed
	b.mu.RUnlock()

	if closed {
		return fmt.Errorf("message broker is closed")
	}

	if !exists {
		b.mu.Lock()
		if b.closed {
			b.mu.Unlock()
			return fmt.Errorf("message broker is closed")
		}
		b.channelFor(key)
		b.mu.Unlock()
	}

	msg := domain.Message{
		Topic:      topic,
		RoutingKey: routingKey,
		Payload:    message,
		Timestamp:  time.Now(),
	}

	// The send happens under the read lock so Unsubscribe and Close cannot
	// close the channel underneath it.
	b.mu.RLock()
	defer b.mu.RUnlock()

	channel, exists = b.topics[key]
	if !exists {
		return fmt.Errorf("topic was unsubscribed: %s:%s", topic, routingKey)
	}

	select {
	case channel <- msg:
		log.WithCtx(ctx).Debug("Message published to topic",
			zap.String("topic", topic),
			zap.String("routingKey", routingKey),
			zap.Int("payload_size", len(message)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("topic channel is full: %s:%s", topic, routingKey)
	}
}

// Subscribe listens for messages on a specific topic and routing key
func (b *ChannelMessageBroker) Subscribe(ctx context.Context, topic string, routingKey string) (<-chan domain.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("message broker is closed")
	}

	channel := b.channelFor(makeKey(topic, routingKey))

	log.WithCtx(ctx).Debug("Subscribed to topic", zap.String("topic", topic), zap.String("routingKey", routingKey))
	return channel, nil
}

// Unsubscribe removes the topic/routing key pair and closes its channel.
func (b *ChannelMessageBroker) Unsubscribe(topic string, routingKey string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := makeKey(topic, routingKey)
	if channel, exists := b.topics[key]; exists {
		close(channel)
		delete(b.topics, key)
	}
}

// Close closes the message broker and all topic channels
func (b *ChannelMessageBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true

	for key, channel := range b.topics {
		close(channel)
		log.WithCtx(context.Background()).Debug("Closed topic channel", zap.String("key", key))
	}

	b.topics = make(map[string]chan domain.Message)

	log.WithCtx(context.Background()).Info("Message broker closed")
	return nil
}

// GetTopicCount returns the number of active topics (useful for monitoring)
func (b *ChannelMessageBroker) GetTopicCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics)
}

// IsClosed returns whether the broker is closed
func (b *ChannelMessageBroker) IsClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}
