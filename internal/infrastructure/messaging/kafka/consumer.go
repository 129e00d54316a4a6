package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/trellisource/sourcing-intelligence/internal/config"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/trellisource/sourcing-intelligence/pkg/errors"
)

// Handler processes one decoded event.  Returning an error triggers retry
// and, when retries are exhausted, dead-lettering.
type Handler func(ctx context.Context, env *EventEnvelope) error

// reader abstracts kafka.Reader for tests.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads one topic and dispatches envelopes to a handler.  Messages
// are committed only after successful handling, so a crashed worker replays
// rather than drops.
type Consumer struct {
	reader     reader
	handler    Handler
	deadLetter *Producer
	topic      string
	maxRetries int
	backoff    time.Duration
	log        logging.Logger
}

// ConsumerOptions configure a Consumer beyond the shared Kafka settings.
type ConsumerOptions struct {
	Topic      string
	Handler    Handler
	DeadLetter *Producer
	MaxRetries int
	Backoff    time.Duration
}

// NewConsumer constructs a group consumer for one topic.
func NewConsumer(cfg config.KafkaConfig, opts ConsumerOptions, log logging.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.Validation("brokers", "at least one broker is required")
	}
	if opts.Topic == "" {
		return nil, errors.Validation("topic", "required")
	}
	if opts.Handler == nil {
		return nil, errors.Validation("handler", "required")
	}

	startOffset := kafka.LastOffset
	if cfg.AutoOffsetReset == "earliest" {
		startOffset = kafka.FirstOffset
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       opts.Topic,
		StartOffset: startOffset,
		MinBytes:    1,
		MaxBytes:    10 << 20,
	})

	return newConsumer(r, opts, log), nil
}

func newConsumer(r reader, opts ConsumerOptions, log logging.Logger) *Consumer {
	if log == nil {
		log = logging.NewNop()
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	return &Consumer{
		reader:     r,
		handler:    opts.Handler,
		deadLetter: opts.DeadLetter,
		topic:      opts.Topic,
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		log:        log,
	}
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info("consumer started", logging.String("topic", c.topic))
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("consumer stopped", logging.String("topic", c.topic))
				return ctx.Err()
			}
			c.log.Error("failed to fetch message", logging.String("topic", c.topic), logging.Err(err))
			continue
		}

		c.process(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Error("failed to commit offset",
				logging.String("topic", c.topic), logging.Int64("offset", msg.Offset), logging.Err(err))
		}
	}
}

// process handles one message with bounded retries.  A message that cannot
// be decoded or handled is dead-lettered, never retried forever.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	var env EventEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		c.log.Warn("undecodable message, dead-lettering",
			logging.String("topic", c.topic), logging.Int64("offset", msg.Offset), logging.Err(err))
		c.toDeadLetter(ctx, msg, "undecodable envelope")
		return
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.backoff * time.Duration(attempt)):
			}
		}
		if lastErr = c.handler(ctx, &env); lastErr == nil {
			return
		}
		c.log.Warn("handler failed",
			logging.String("topic", c.topic),
			logging.String("event_id", env.EventID),
			logging.Int("attempt", attempt+1),
			logging.Err(lastErr))
	}

	c.log.Error("retries exhausted, dead-lettering",
		logging.String("topic", c.topic),
		logging.String("event_id", env.EventID),
		logging.Err(lastErr))
	c.toDeadLetter(ctx, msg, lastErr.Error())
}

func (c *Consumer) toDeadLetter(ctx context.Context, msg kafka.Message, reason string) {
	if c.deadLetter == nil {
		return
	}
	err := c.deadLetter.publish(ctx, TopicDeadLetter, string(msg.Key), map[string]string{
		"original_topic": c.topic,
		"reason":         reason,
		"value":          string(msg.Value),
	})
	if err != nil {
		c.log.Error("failed to dead-letter message",
			logging.String("topic", c.topic), logging.Err(err))
	}
}

// Close shuts the consumer down.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
