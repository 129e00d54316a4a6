package prometheus

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "srciq_test"}, nil)
	require.NoError(t, err)
	return c
}

func TestNewMetricsCollectorRequiresNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{}, nil)
	require.Error(t, err)
}

func TestCounterRoundTrip(t *testing.T) {
	c := newTestCollector(t)
	counter := c.RegisterCounter("widgets_total", "widgets", "kind")
	counter.WithLabelValues("steel").Inc()
	counter.WithLabelValues("steel").Add(2)

	body := scrape(t, c)
	assert.Contains(t, body, `srciq_test_widgets_total{kind="steel"} 3`)
}

func TestDuplicateRegistrationReturnsSameFamily(t *testing.T) {
	c := newTestCollector(t)
	first := c.RegisterCounter("dup_total", "dup", "k")
	second := c.RegisterCounter("dup_total", "dup", "k")
	first.WithLabelValues("a").Inc()
	second.WithLabelValues("a").Inc()

	body := scrape(t, c)
	assert.Contains(t, body, `srciq_test_dup_total{k="a"} 2`, "both handles feed one family")
}

func TestConflictingRegistrationDegradesToNoop(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("clash", "as counter")
	g := c.RegisterGauge("clash", "as gauge")

	// Must not panic; the conflicting handle is a no-op.
	g.WithLabelValues().Set(42)
}

func TestHistogramObserves(t *testing.T) {
	c := newTestCollector(t)
	h := c.RegisterHistogram("latency_seconds", "latency", []float64{0.1, 1}, "op")
	h.WithLabelValues("rank").Observe(0.05)

	body := scrape(t, c)
	assert.Contains(t, body, `srciq_test_latency_seconds_count{op="rank"} 1`)
}

func TestTimerObservesElapsed(t *testing.T) {
	c := newTestCollector(t)
	h := c.RegisterHistogram("timed_seconds", "timed", nil)
	timer := NewTimer(h.WithLabelValues())
	time.Sleep(time.Millisecond)
	timer.ObserveDuration()

	body := scrape(t, c)
	assert.Contains(t, body, "srciq_test_timed_seconds_count 1")
}

func TestAppMetricsRegisterAndRecord(t *testing.T) {
	c := newTestCollector(t)
	m := NewAppMetrics(c)

	RecordHTTPRequest(m, "POST", "/api/v1/matches/find", 200, 12*time.Millisecond)
	RecordMatchRun(m, "memory", 40, 10, 1, 80*time.Millisecond, nil)
	RecordAnalysis(m, true, 250*time.Millisecond, nil)
	RecordCacheAccess(m, "market_data", true)
	RecordCacheAccess(m, "market_data", false)
	RecordEventPublish(m, "rfq.matched", nil)

	body := scrape(t, c)
	assert.Contains(t, body, `srciq_test_http_requests_total{method="POST",path="/api/v1/matches/find",status_code="200"} 1`)
	assert.Contains(t, body, `srciq_test_match_requests_total{status="success"} 1`)
	assert.Contains(t, body, "srciq_test_rfq_analysis_degraded_total 1")
	assert.Contains(t, body, `srciq_test_cache_hits_total{cache="market_data"} 1`)
	assert.Contains(t, body, `srciq_test_cache_misses_total{cache="market_data"} 1`)
	assert.Contains(t, body, `srciq_test_events_published_total{topic="rfq.matched"} 1`)
}

func TestRecordHelpersTolerateNilMetrics(t *testing.T) {
	RecordHTTPRequest(nil, "GET", "/", 200, 0)
	RecordMatchRun(nil, "memory", 0, 0, 0, 0, nil)
	RecordAnalysis(nil, false, 0, nil)
	RecordCacheAccess(nil, "x", true)
	RecordEventPublish(nil, "t", nil)
}

func scrape(t *testing.T, c MetricsCollector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	b, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return strings.ReplaceAll(string(b), "\r\n", "\n")
}
