package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds the metric families of the sourcing-intelligence service.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Matching
	MatchRequestsTotal    CounterVec
	MatchDuration         HistogramVec
	MatchCandidateCount   HistogramVec
	MatchResultCount      HistogramVec
	MatchSkipsTotal       CounterVec
	RetrievalFallbacks    CounterVec

	// Analysis
	AnalysisRequestsTotal   CounterVec
	AnalysisDuration        HistogramVec
	AnalysisDegradedTotal   CounterVec
	MarketDataCallsTotal    CounterVec
	MarketDataCallDuration  HistogramVec
	RiskAssessmentsTotal    CounterVec
	ReportsGeneratedTotal   CounterVec
	ReportArchiveFailures   CounterVec

	// Infrastructure
	DBQueryDuration        HistogramVec
	CacheHitsTotal         CounterVec
	CacheMissesTotal       CounterVec
	EventsPublishedTotal   CounterVec
	EventPublishFailures   CounterVec
	MessageProcessDuration HistogramVec

	// Health
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

var (
	DefaultHTTPDurationBuckets     = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultAnalysisDurationBuckets = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60}
	DefaultDBDurationBuckets       = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
	DefaultCountBuckets            = []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000}
)

// NewAppMetrics registers every metric family on the collector.
func NewAppMetrics(c MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = c.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = c.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = c.RegisterGauge("http_active_requests", "In-flight HTTP requests", "method", "path")

	m.MatchRequestsTotal = c.RegisterCounter("match_requests_total", "Supplier matching runs", "status")
	m.MatchDuration = c.RegisterHistogram("match_duration_seconds", "Supplier matching run duration", DefaultAnalysisDurationBuckets, "engine")
	m.MatchCandidateCount = c.RegisterHistogram("match_candidate_count", "Candidates scored per matching run", DefaultCountBuckets, "engine")
	m.MatchResultCount = c.RegisterHistogram("match_result_count", "Results returned per matching run", DefaultCountBuckets, "engine")
	m.MatchSkipsTotal = c.RegisterCounter("match_skips_total", "Suppliers skipped during matching", "reason")
	m.RetrievalFallbacks = c.RegisterCounter("match_retrieval_fallbacks_total", "Candidate retrievals that fell back to the full catalog")

	m.AnalysisRequestsTotal = c.RegisterCounter("rfq_analysis_total", "Complex RFQ analyses", "status")
	m.AnalysisDuration = c.RegisterHistogram("rfq_analysis_duration_seconds", "Complex RFQ analysis duration", DefaultAnalysisDurationBuckets)
	m.AnalysisDegradedTotal = c.RegisterCounter("rfq_analysis_degraded_total", "Analyses completed on fallback values")
	m.MarketDataCallsTotal = c.RegisterCounter("market_data_calls_total", "Market data collaborator calls", "signal", "status")
	m.MarketDataCallDuration = c.RegisterHistogram("market_data_call_duration_seconds", "Market data call duration", DefaultHTTPDurationBuckets, "signal")
	m.RiskAssessmentsTotal = c.RegisterCounter("risk_assessments_total", "Supplier risk assessments", "status")
	m.ReportsGeneratedTotal = c.RegisterCounter("negotiation_reports_total", "Negotiation reports generated", "status")
	m.ReportArchiveFailures = c.RegisterCounter("report_archive_failures_total", "Negotiation report archive failures")

	m.DBQueryDuration = c.RegisterHistogram("db_query_duration_seconds", "Database query duration", DefaultDBDurationBuckets, "db", "operation")
	m.CacheHitsTotal = c.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = c.RegisterCounter("cache_misses_total", "Cache misses", "cache")
	m.EventsPublishedTotal = c.RegisterCounter("events_published_total", "Domain events published", "topic")
	m.EventPublishFailures = c.RegisterCounter("event_publish_failures_total", "Domain event publish failures", "topic")
	m.MessageProcessDuration = c.RegisterHistogram("mq_process_duration_seconds", "Consumed message processing duration", DefaultHTTPDurationBuckets, "topic")

	m.HealthCheckStatus = c.RegisterGauge("health_check_status", "Component health (1=up, 0=down)", "component")
	m.ErrorsTotal = c.RegisterCounter("errors_total", "Errors by component", "component", "error_type")

	return m
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(m *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordMatchRun records the outcome of one matching run.
func RecordMatchRun(m *AppMetrics, engine string, candidates, results, skips int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.MatchRequestsTotal.WithLabelValues(status).Inc()
	if err != nil {
		return
	}
	m.MatchDuration.WithLabelValues(engine).Observe(duration.Seconds())
	m.MatchCandidateCount.WithLabelValues(engine).Observe(float64(candidates))
	m.MatchResultCount.WithLabelValues(engine).Observe(float64(results))
	if skips > 0 {
		m.MatchSkipsTotal.WithLabelValues("invalid_supplier").Add(float64(skips))
	}
}

// RecordAnalysis records one complex RFQ analysis.
func RecordAnalysis(m *AppMetrics, degraded bool, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.AnalysisRequestsTotal.WithLabelValues(status).Inc()
	if err != nil {
		return
	}
	m.AnalysisDuration.WithLabelValues().Observe(duration.Seconds())
	if degraded {
		m.AnalysisDegradedTotal.WithLabelValues().Inc()
	}
}

// RecordCacheAccess records one cache lookup.
func RecordCacheAccess(m *AppMetrics, cache string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

// RecordEventPublish records one publish attempt.
func RecordEventPublish(m *AppMetrics, topic string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.EventPublishFailures.WithLabelValues(topic).Inc()
		return
	}
	m.EventsPublishedTotal.WithLabelValues(topic).Inc()
}
