package observability

import (
	"context"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/barista-backend/internal/platform/logger"
)

// Metrics is nil-safe: every method is a no-op on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests   *prometheus.CounterVec
	apiLatency    *prometheus.HistogramVec
	apiInflight   prometheus.Gauge
	turns         *prometheus.CounterVec
	turnLatency   *prometheus.HistogramVec
	resolverHits  *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	nluLatency    *prometheus.HistogramVec
	ragCandidates prometheus.Histogram
	vectorOps     *prometheus.HistogramVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return true
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func Current() *Metrics {
	return instance
}

// Init builds the process-wide metrics once. It returns nil when METRICS_ENABLED is off.
func Init(log *logger.Logger) *Metrics {
	initOnce.Do(func() {
		if !Enabled() {
			if log != nil {
				log.Info("metrics disabled")
			}
			return
		}
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		instance = New(reg)
	})
	return instance
}

// New registers the barista collectors on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "barista_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "barista_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "barista_http_inflight_requests",
			Help: "HTTP requests currently being served.",
		}),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "barista_turns_total",
			Help: "Dialogue turns by intent and outcome.",
		}, []string{"intent", "outcome"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "barista_turn_duration_seconds",
			Help:    "End-to-end dialogue turn latency.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		}, []string{"mode"}),
		resolverHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "barista_drink_resolver_total",
			Help: "Drink resolutions by winning strategy.",
		}, []string{"strategy"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "barista_order_transitions_total",
			Help: "Dispatcher outcomes by intent and result.",
		}, []string{"intent", "result"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "barista_turn_cache_lookups_total",
			Help: "Turn-context cache lookups by result.",
		}, []string{"result"}),
		nluLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "barista_nlu_duration_seconds",
			Help:    "NLU call latency by provider and status.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"provider", "status"}),
		ragCandidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "barista_rag_candidates",
			Help:    "Number of RAG candidates retrieved per turn.",
			Buckets: prometheus.LinearBuckets(0, 1, 6),
		}),
		vectorOps: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "barista_vector_store_operation_duration_seconds",
			Help:    "Vector store operation latency by provider, operation and status.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		}, []string{"provider", "operation", "status"}),
	}
	reg.MustRegister(
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.turns,
		m.turnLatency,
		m.resolverHits,
		m.transitions,
		m.cacheLookups,
		m.nluLatency,
		m.ragCandidates,
		m.vectorOps,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveTurn(mode, intent, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	if intent == "" {
		intent = "none"
	}
	m.turns.WithLabelValues(intent, outcome).Inc()
	m.turnLatency.WithLabelValues(mode).Observe(dur.Seconds())
}

func (m *Metrics) IncResolverStrategy(strategy string) {
	if m == nil {
		return
	}
	m.resolverHits.WithLabelValues(strategy).Inc()
}

func (m *Metrics) IncTransition(intent, result string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(intent, result).Inc()
}

func (m *Metrics) IncCacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveNLU(provider, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.nluLatency.WithLabelValues(provider, status).Observe(dur.Seconds())
}

func (m *Metrics) ObserveRAGCandidates(n int) {
	if m == nil {
		return
	}
	m.ragCandidates.Observe(float64(n))
}

func (m *Metrics) ObserveVectorStoreOperation(provider, operation, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.vectorOps.WithLabelValues(provider, operation, status).Observe(dur.Seconds())
}
