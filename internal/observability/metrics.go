package observability

import (
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/docintel-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	llmRequests *CounterVec
	llmLatency  *HistogramVec
	llmTokens   *CounterVec

	documentRuns     *CounterVec
	documentLatency  *HistogramVec
	chunkCalls       *CounterVec
	chunkLatency     *HistogramVec
	annotations      *CounterVec
	extractCache     *CounterVec
	processQueue     *Gauge
	processorRunning *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

// Current returns the process-wide metrics, or nil when metrics are disabled.
// Every method is safe on a nil receiver.
func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
		if log != nil {
			log.Info("Metrics enabled")
		}
	})
	return instance
}

// NewMetrics builds an unregistered instance; Init installs the shared one.
func NewMetrics() *Metrics {
	slow := []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300}
	return &Metrics{
		apiRequests: NewCounterVec("docintel_api_requests_total", "HTTP requests", []string{"method", "route", "status"}),
		apiLatency:  NewHistogramVec("docintel_api_request_seconds", "HTTP request latency", []string{"method", "route"}, nil),
		apiInflight: NewGauge("docintel_api_inflight", "HTTP requests in flight"),

		llmRequests: NewCounterVec("docintel_llm_requests_total", "Reasoning requests", []string{"model", "endpoint", "status"}),
		llmLatency:  NewHistogramVec("docintel_llm_request_seconds", "Reasoning request latency", []string{"model", "endpoint"}, slow),
		llmTokens:   NewCounterVec("docintel_llm_tokens_total", "Reasoning tokens", []string{"model", "kind"}),

		documentRuns:     NewCounterVec("docintel_document_runs_total", "Document pipeline runs", []string{"format", "status"}),
		documentLatency:  NewHistogramVec("docintel_document_run_seconds", "Document pipeline latency", []string{"format"}, slow),
		chunkCalls:       NewCounterVec("docintel_chunk_calls_total", "Per-chunk reasoning calls", []string{"kind", "status"}),
		chunkLatency:     NewHistogramVec("docintel_chunk_call_seconds", "Per-chunk reasoning latency", []string{"kind"}, slow),
		annotations:      NewCounterVec("docintel_annotations_total", "Highlights placed or skipped", []string{"format", "result"}),
		extractCache:     NewCounterVec("docintel_extract_cache_total", "Extraction cache lookups", []string{"result"}),
		processQueue:     NewGauge("docintel_process_queue_depth", "Documents waiting for a worker"),
		processorRunning: NewGauge("docintel_process_running", "Documents being processed"),
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, inst := range []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.llmRequests, m.llmLatency, m.llmTokens,
		m.documentRuns, m.documentLatency, m.chunkCalls, m.chunkLatency,
		m.annotations, m.extractCache, m.processQueue, m.processorRunning,
	} {
		if err := inst.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) APIInflightInc() {
	if m != nil {
		m.apiInflight.Inc()
	}
}

func (m *Metrics) APIInflightDec() {
	if m != nil {
		m.apiInflight.Dec()
	}
}

func (m *Metrics) ObserveLLMRequest(model, endpoint, status string, dur time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	m.llmRequests.Inc(model, endpoint, status)
	if dur > 0 {
		m.llmLatency.Observe(dur.Seconds(), model, endpoint)
	}
	if inputTokens > 0 {
		m.llmTokens.Add(float64(inputTokens), model, "input")
	}
	if outputTokens > 0 {
		m.llmTokens.Add(float64(outputTokens), model, "output")
	}
}

// ObserveDocument records one pipeline run; status is "ok" or "error".
func (m *Metrics) ObserveDocument(format, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.documentRuns.Inc(format, status)
	m.documentLatency.Observe(dur.Seconds(), format)
}

// ObserveChunkCall records one per-chunk reasoning call; kind is "highlight" or "summary".
func (m *Metrics) ObserveChunkCall(kind, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.chunkCalls.Inc(kind, status)
	m.chunkLatency.Observe(dur.Seconds(), kind)
}

func (m *Metrics) ObserveAnnotation(format string, applied, skipped int) {
	if m == nil {
		return
	}
	if applied > 0 {
		m.annotations.Add(float64(applied), format, "applied")
	}
	if skipped > 0 {
		m.annotations.Add(float64(skipped), format, "skipped")
	}
}

func (m *Metrics) IncExtractCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.extractCache.Inc("hit")
		return
	}
	m.extractCache.Inc("miss")
}

func (m *Metrics) ProcessQueued(delta int) {
	if m != nil {
		m.processQueue.Add(float64(delta))
	}
}

func (m *Metrics) ProcessRunning(delta int) {
	if m != nil {
		m.processorRunning.Add(float64(delta))
	}
}

// StatusLabel maps an error to the "ok"/"error" label used by the run counters.
func StatusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
