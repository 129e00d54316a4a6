package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFieldsReachZapCore(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	log := NewFromCore(core)

	log.Info("match complete",
		String("rfq_id", "rfq-1"),
		Int("candidates", 7),
		Float64("top_score", 91.5),
		Bool("degraded", false),
		Duration("elapsed", 120*time.Millisecond),
		Err(errors.New("partial skip")),
	)

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "match complete", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "rfq-1", fields["rfq_id"])
	assert.EqualValues(t, 7, fields["candidates"])
	assert.Equal(t, 91.5, fields["top_score"])
	assert.Equal(t, "partial skip", fields["error"])
}

func TestWithAddsPersistentFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	log := NewFromCore(core).With(String("component", "ranker"))

	log.Info("first")
	log.Warn("second")

	for _, e := range observed.All() {
		assert.Equal(t, "ranker", e.ContextMap()["component"])
	}
}

func TestLevelFiltering(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	log := NewFromCore(core)

	log.Debug("hidden")
	log.Info("hidden")
	log.Warn("visible")

	require.Len(t, observed.All(), 1)
	assert.Equal(t, "visible", observed.All()[0].Message)
}

func TestNewAppliesDefaults(t *testing.T) {
	log, err := New(Config{})
	require.NoError(t, err)
	require.NotNil(t, log)
}

func TestErrNil(t *testing.T) {
	f := Err(nil)
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, "<nil>", f.Value)
}

func TestDefaultIsSwappable(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	core, observed := observer.New(zapcore.InfoLevel)
	SetDefault(NewFromCore(core))
	Default().Info("routed through default")

	require.Len(t, observed.All(), 1)

	SetDefault(nil)
	assert.NotNil(t, Default(), "nil must not replace the default logger")
}
