// Package metrics exposes ledger and HTTP metrics in the Prometheus format
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "liquidstake"

// PoolState is a float view of the pool used to refresh gauges.
type PoolState struct {
	ExchangeRate         float64
	TotalDelegated       float64
	ReceiptSupply        float64
	RewardsAccumulated   float64
	PendingUndelegations int
	Validators           int
	Delegations          int
}

// Recorder owns a private registry so several instances can coexist in tests.
type Recorder struct {
	registry *prometheus.Registry

	events          *prometheus.CounterVec
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	exchangeRate         prometheus.Gauge
	totalDelegated       prometheus.Gauge
	receiptSupply        prometheus.Gauge
	rewardsAccumulated   prometheus.Gauge
	pendingUndelegations prometheus.Gauge
	validators           prometheus.Gauge
	delegations          prometheus.Gauge
}

// New creates a Recorder with Go runtime and process collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Ledger and service events by type.",
		}, []string{"type"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		exchangeRate:         newGauge("exchange_rate", "Base units per receipt unit."),
		totalDelegated:       newGauge("total_delegated", "Base units delegated across all validators."),
		receiptSupply:        newGauge("receipt_supply", "Receipt tokens in circulation."),
		rewardsAccumulated:   newGauge("rewards_accumulated", "Delegator rewards credited to the pool."),
		pendingUndelegations: newGauge("pending_undelegations", "Undelegation requests waiting for their cooldown."),
		validators:           newGauge("validators", "Registered validators."),
		delegations:          newGauge("delegations", "Open delegation positions."),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.events,
		r.requests,
		r.requestDuration,
		r.exchangeRate,
		r.totalDelegated,
		r.receiptSupply,
		r.rewardsAccumulated,
		r.pendingUndelegations,
		r.validators,
		r.delegations,
	)

	return r
}

func newGauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "pool",
		Name:      name,
		Help:      help,
	})
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RegisterDroppedEvents exposes a counter read from fn on every scrape.
func (r *Recorder) RegisterDroppedEvents(fn func() uint64) {
	r.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Events dropped because the subscriber fell behind.",
	}, func() float64 { return float64(fn()) }))
}

// ObserveEvent counts an event of the given type
func (r *Recorder) ObserveEvent(eventType string) {
	r.events.WithLabelValues(eventType).Inc()
}

// SetPool refreshes the pool gauges
func (r *Recorder) SetPool(s PoolState) {
	r.exchangeRate.Set(s.ExchangeRate)
	r.totalDelegated.Set(s.TotalDelegated)
	r.receiptSupply.Set(s.ReceiptSupply)
	r.rewardsAccumulated.Set(s.RewardsAccumulated)
	r.pendingUndelegations.Set(float64(s.PendingUndelegations))
	r.validators.Set(float64(s.Validators))
	r.delegations.Set(float64(s.Delegations))
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// statusRecorder captures the status code written by the wrapped handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency per route pattern.
// It must wrap the ServeMux directly so the matched pattern is visible.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, req)

		route := req.Pattern
		if route == "" {
			route = "unmatched"
		}
		r.requests.WithLabelValues(route, req.Method, strconv.Itoa(rec.status)).Inc()
		r.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
