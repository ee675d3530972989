package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/greencrop/storefront/internal/config"
)

const (
	handlerAttempts   = 3
	handlerRetryDelay = 500 * time.Millisecond
)

// groupReader is the part of *kafka.Reader the consume loop needs.
type groupReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// kafkaClient implements the Client via kafka-go.
type kafkaClient struct {
	writer     *kafka.Writer
	reader     groupReader
	topic      string
	logger     *zap.Logger
	attempts   int
	retryDelay time.Duration
}

func (k *kafkaClient) Publish(ctx context.Context, key []byte, value []byte) error {
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(EventOrderCreated)},
			{Key: HeaderContentType, Value: []byte("application/json")},
		},
	})
}

// Consume fetches until ctx ends. Offsets are committed in order, so a
// message is retried in place up to handlerAttempts times; after that it is
// logged and committed so the partition keeps moving.
func (k *kafkaClient) Consume(ctx context.Context, handler Handler) error {
	for {
		msg, err := k.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			k.logger.Error("kafka fetch failed", zap.Error(err))

			if err := sleep(ctx, time.Second); err != nil {
				return err
			}
			continue
		}

		if err := k.handle(ctx, handler, msg); err != nil {
			return err
		}

		if err := k.reader.CommitMessages(ctx, msg); err != nil {
			k.logger.Warn("commit failed", zap.Error(err))
		}
	}
}

// handle runs handler with retries. It returns an error only when ctx ends,
// leaving the message uncommitted for redelivery.
func (k *kafkaClient) handle(ctx context.Context, handler Handler, msg kafka.Message) error {
	attempts := max(k.attempts, 1)
	for attempt := 1; ; attempt++ {
		err := handler(ctx, fromKafka(msg))
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt >= attempts {
			k.logger.Error("message dropped after retries",
				zap.Int64("offset", msg.Offset),
				zap.Int("partition", msg.Partition),
				zap.Int("attempts", attempt),
				zap.Error(err),
			)
			return nil
		}
		k.logger.Warn("message handler failed; retrying", zap.Int64("offset", msg.Offset), zap.Int("attempt", attempt), zap.Error(err))
		if err := sleep(ctx, time.Duration(attempt)*k.retryDelay); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (k *kafkaClient) Topic() string { return k.topic }

func fromKafka(msg kafka.Message) Message {
	out := Message{
		Topic:  msg.Topic,
		Key:    append([]byte(nil), msg.Key...),
		Value:  append([]byte(nil), msg.Value...),
		Offset: msg.Offset,
		Time:   msg.Time,
	}
	if len(msg.Headers) > 0 {
		out.Headers = make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			out.Headers[h.Key] = string(h.Value)
		}
	}
	return out
}

func newKafkaClient(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (Client, error) {
	kc := cfg.Messaging.Kafka

	writer := &kafka.Writer{
		Addr:         kafka.TCP(kc.Brokers...),
		Topic:        kc.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Logger:       kafkaLogger{log: logger.Sugar().Debugf},
		ErrorLogger:  kafkaLogger{log: logger.Sugar().Warnf},
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        kc.Brokers,
		GroupID:        cfg.Messaging.ConsumerGroup,
		Topic:          kc.Topic,
		MinBytes:       kc.MinBytes,
		MaxBytes:       kc.MaxBytes,
		CommitInterval: kc.CommitInterval,
		Dialer: &kafka.Dialer{
			Timeout:  kc.ConnectTimeout,
			ClientID: kc.ClientID,
		},
	})

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("closing kafka client")

			return errors.Join(writer.Close(), reader.Close())
		},
	})

	return &kafkaClient{
		writer:     writer,
		reader:     reader,
		topic:      kc.Topic,
		logger:     logger,
		attempts:   handlerAttempts,
		retryDelay: handlerRetryDelay,
	}, nil
}

// kafkaLogger adapts a sugared zap printf to kafka.Logger.
type kafkaLogger struct {
	log func(template string, args ...interface{})
}

func (k kafkaLogger) Printf(msg string, args ...interface{}) {
	k.log(msg, args...)
}
