package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellisource/sourcing-intelligence/internal/application/matching"
	"github.com/trellisource/sourcing-intelligence/internal/application/negotiation"
	"github.com/trellisource/sourcing-intelligence/internal/config"
	"github.com/trellisource/sourcing-intelligence/pkg/errors"
	"github.com/trellisource/sourcing-intelligence/pkg/types/common"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer(config.KafkaConfig{}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestPublishRFQMatchedWrapsInEnvelope(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, nil)

	ev := matching.MatchedEvent{
		RequirementID: "req-1",
		Category:      "steel",
		ResultCount:   3,
		OccurredAt:    time.Now().UTC(),
	}
	require.NoError(t, p.PublishRFQMatched(context.Background(), ev))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, TopicRFQMatched, msg.Topic)
	assert.Equal(t, "req-1", string(msg.Key), "keyed by requirement for partition ordering")

	var env EventEnvelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, TopicRFQMatched, env.EventType)
	assert.Equal(t, "sourcing-intelligence", env.Source)
	assert.Equal(t, "v1", env.SchemaVersion)
	assert.NotEmpty(t, env.EventID)

	var decoded matching.MatchedEvent
	require.NoError(t, env.DecodePayload(&decoded))
	assert.Equal(t, ev.RequirementID, decoded.RequirementID)
	assert.Equal(t, ev.ResultCount, decoded.ResultCount)
}

func TestPublishRFQAnalyzedKeyedByRFQ(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, nil)

	ev := negotiation.AnalyzedEvent{RFQID: common.ID("rfq-9"), LineCount: 2}
	require.NoError(t, p.PublishRFQAnalyzed(context.Background(), ev))
	require.Len(t, w.messages, 1)
	assert.Equal(t, TopicRFQAnalyzed, w.messages[0].Topic)
	assert.Equal(t, "rfq-9", string(w.messages[0].Key))
}

func TestPublishFailureWrapsError(t *testing.T) {
	w := &fakeWriter{err: assert.AnError}
	p := NewProducerWithWriter(w, nil)

	err := p.PublishSupplierUpserted(context.Background(), "sup-1")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEventPublishError))

	_, failed := p.Stats()
	assert.Equal(t, int64(1), failed)
}

func TestClosedProducerRejectsPublish(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, nil)
	require.NoError(t, p.Close())
	assert.True(t, w.closed)

	err := p.PublishSupplierUpserted(context.Background(), "sup-1")
	assert.ErrorIs(t, err, ErrProducerClosed)

	// Double close is a no-op.
	require.NoError(t, p.Close())
}
