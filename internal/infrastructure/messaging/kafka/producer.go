package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/trellisource/sourcing-intelligence/internal/application/matching"
	"github.com/trellisource/sourcing-intelligence/internal/application/negotiation"
	"github.com/trellisource/sourcing-intelligence/internal/config"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/trellisource/sourcing-intelligence/pkg/errors"
)

var ErrProducerClosed = errors.New(errors.ErrCodeEventPublishError, "producer is closed")

// writer abstracts kafka.Writer for tests.
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes domain events.  It implements the matching and
// negotiation EventPublisher ports.
type Producer struct {
	writer writer
	log    logging.Logger
	closed atomic.Bool

	sent   atomic.Int64
	failed atomic.Int64
}

// NewProducer constructs a producer writing to the configured brokers.
// Messages are keyed by RFQ ID so per-RFQ ordering holds within a partition.
func NewProducer(cfg config.KafkaConfig, log logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.Validation("brokers", "at least one broker is required")
	}
	if log == nil {
		log = logging.NewNop()
	}

	maxAttempts := cfg.ProducerRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 4
	}
	batchSize := cfg.BatchSize
	if batchSize < 1 {
		batchSize = 100
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  maxAttempts,
		BatchSize:    batchSize,
		BatchTimeout: time.Second,
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: 10 * time.Second,
	}
	return &Producer{writer: w, log: log}, nil
}

// NewProducerWithWriter wraps an existing writer, for tests.
func NewProducerWithWriter(w writer, log logging.Logger) *Producer {
	if log == nil {
		log = logging.NewNop()
	}
	return &Producer{writer: w, log: log}
}

// PublishRFQMatched emits a rfq.matched event.
func (p *Producer) PublishRFQMatched(ctx context.Context, ev matching.MatchedEvent) error {
	return p.publish(ctx, TopicRFQMatched, string(ev.RequirementID), ev)
}

// PublishRFQAnalyzed emits a rfq.analyzed event.
func (p *Producer) PublishRFQAnalyzed(ctx context.Context, ev negotiation.AnalyzedEvent) error {
	return p.publish(ctx, TopicRFQAnalyzed, string(ev.RFQID), ev)
}

// PublishSupplierUpserted emits a supplier.upserted event after directory
// mutations.
func (p *Producer) PublishSupplierUpserted(ctx context.Context, supplierID string) error {
	return p.publish(ctx, TopicSupplierUpserted, supplierID,
		map[string]string{"supplier_id": supplierID})
}

func (p *Producer) publish(ctx context.Context, topic, key string, payload any) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}

	env, err := NewEventEnvelope(topic, payload)
	if err != nil {
		return err
	}
	value, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal event envelope")
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Time:  env.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(env.EventType)},
			{Key: "source_service", Value: []byte(env.Source)},
			{Key: "schema_version", Value: []byte(env.SchemaVersion)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.failed.Add(1)
		return errors.Wrap(err, errors.ErrCodeEventPublishError, "failed to publish event")
	}

	p.sent.Add(1)
	p.log.Debug("event published",
		logging.String("topic", topic),
		logging.String("event_id", env.EventID))
	return nil
}

// Stats reports publish counters for diagnostics.
func (p *Producer) Stats() (sent, failed int64) {
	return p.sent.Load(), p.failed.Load()
}

// Close flushes and shuts the producer down.  Safe to call more than once.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.log.Info("kafka producer closed", logging.Int64("sent", p.sent.Load()))
	return err
}
