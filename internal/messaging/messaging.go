// Package messaging publishes and consumes order events on the message bus.
package messaging

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/greencrop/storefront/internal/config"
)

// Header keys set on every published event.
const (
	HeaderEventType   = "event-type"
	HeaderContentType = "content-type"
)

// EventOrderCreated is the event type of order confirmations.
const EventOrderCreated = "order.created"

// Message represents a message consumed from the bus.
type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
	Offset  int64
	Time    time.Time
}

// EventType returns the event-type header, defaulting to order.created for
// messages published before headers were set.
func (m Message) EventType() string {
	if t := m.Headers[HeaderEventType]; t != "" {
		return t
	}
	return EventOrderCreated
}

// Handler processes an inbound message.
type Handler func(context.Context, Message) error

//go:generate mockgen -destination=mock_messaging/mock_messaging.go -package=mock_messaging . Client

// Client is the pluggable messaging abstraction.
type Client interface {
	Publish(ctx context.Context, key []byte, value []byte) error
	Consume(ctx context.Context, handler Handler) error
	Topic() string
}

// Module wires the messaging client.
var Module = fx.Provide(NewClient)

// noopClient is used when messaging is disabled.
type noopClient struct {
	topic string
}

func (n noopClient) Publish(context.Context, []byte, []byte) error { return nil }
func (n noopClient) Consume(ctx context.Context, _ Handler) error {
	<-ctx.Done()
	return ctx.Err()
}
func (n noopClient) Topic() string { return n.topic }

// NewClient builds a messaging client based on configuration.
func NewClient(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (Client, error) {
	if !cfg.Messaging.Enabled || cfg.Messaging.Driver == "noop" {
		logger.Info("messaging disabled; using noop client")

		return noopClient{topic: cfg.Messaging.Kafka.Topic}, nil
	}

	switch cfg.Messaging.Driver {
	case "kafka":
		return newKafkaClient(lc, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported messaging driver: %s", cfg.Messaging.Driver)
	}
}
