// Package kafka carries document events over segmentio/kafka-go. Events are
// JSON encoded and keyed by document id.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/invindex/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/invindex/pkg/resilience"
)

// MessageHandler applies one message. Returning an error means the message
// may succeed later; messages that can never be applied should be
// acknowledged by returning nil.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer feeds one partition stream of a consumer group to a handler, in
// order. Offsets are committed only after the handler succeeds.
type Consumer struct {
	reader   messageReader
	handler  MessageHandler
	retry    resilience.RetryConfig
	deferred bool
	logger   *slog.Logger

	mu      sync.Mutex
	handled []kafka.Message
}

type ConsumerOption func(*Consumer)

// WithDeferredCommit holds handled messages until CommitHandled is called,
// for handlers whose effect is durable only after a later step.
func WithDeferredCommit() ConsumerOption {
	return func(c *Consumer) { c.deferred = true }
}

// NewConsumer joins cfg.ConsumerGroup on the document topic. A new group
// starts at the oldest retained event.
func NewConsumer(cfg config.KafkaConfig, handler MessageHandler, opts ...ConsumerOption) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.DocumentTopic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    1e3,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})
	return newConsumer(r, cfg.DocumentTopic, handler, opts...)
}

func newConsumer(r messageReader, topic string, handler MessageHandler, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		reader:  r,
		handler: handler,
		retry: resilience.RetryConfig{
			MaxAttempts:  5,
			InitialDelay: 250 * time.Millisecond,
			MaxDelay:     10 * time.Second,
		},
		logger: slog.Default().With("component", "kafka-consumer", "topic", topic),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start consumes until ctx ends, which returns nil. A message whose handler
// keeps failing stops the consumer with an error and stays uncommitted, so
// the group redelivers it after a restart instead of skipping it.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consuming document events")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", "reason", ctx.Err())
				return nil
			}
			c.logger.Error("fetching message failed", "error", err)
			continue
		}
		log := c.logger.With("partition", msg.Partition, "offset", msg.Offset)
		log.Debug("message received", "key", string(msg.Key), "bytes", len(msg.Value))

		err = resilience.Retry(ctx, "handle message", c.retry, func(ctx context.Context) error {
			return c.handler(ctx, msg.Key, msg.Value)
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error("giving up on message", "error", err)
			return fmt.Errorf("partition %d offset %d: %w", msg.Partition, msg.Offset, err)
		}
		if c.deferred {
			c.mu.Lock()
			c.handled = append(c.handled, msg)
			c.mu.Unlock()
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error("committing offset failed", "error", err)
		}
	}
}

// CommitHandled commits every message handled since the last call. On
// failure the messages are kept for the next call.
func (c *Consumer) CommitHandled(ctx context.Context) error {
	c.mu.Lock()
	msgs := c.handled
	c.handled = nil
	c.mu.Unlock()
	if len(msgs) == 0 {
		return nil
	}
	if err := c.reader.CommitMessages(ctx, msgs...); err != nil {
		c.mu.Lock()
		c.handled = append(msgs, c.handled...)
		c.mu.Unlock()
		return fmt.Errorf("committing %d messages: %w", len(msgs), err)
	}
	c.logger.Debug("offsets committed", "messages", len(msgs), "last_offset", msgs[len(msgs)-1].Offset)
	return nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// DecodeJSON unmarshals a message value into T.
func DecodeJSON[T any](value []byte) (T, error) {
	var out T
	if err := json.Unmarshal(value, &out); err != nil {
		return out, fmt.Errorf("decoding kafka message: %w", err)
	}
	return out, nil
}
