// Package metrics exposes the Prometheus collectors shared by the dispatch
// loop, the activity adapter and the HTTP transport.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "planner"

// Metrics holds the planner collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	turns           *prometheus.CounterVec
	toolCalls       *prometheus.CounterVec
	modelDuration   prometheus.Histogram
	activityLookups *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
}

var (
	defaultOnce sync.Once
	shared      *Metrics
)

// Default returns the instance registered with the global registry.
// Collectors are created once so repeated construction never double-registers.
func Default() *Metrics {
	defaultOnce.Do(func() {
		shared = MustNew(prometheus.DefaultRegisterer)
	})
	return shared
}

// MustNew registers a fresh set of collectors with reg. Tests pass their own
// registry. Registration errors other than AlreadyRegistered panic.
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Conversation turns completed, by stop reason.",
		}, []string{"stop_reason"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Backend tool executions, by tool and status.",
		}, []string{"tool", "status"}),
		modelDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_call_duration_seconds",
			Help:      "Latency of language model calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		activityLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activity_lookups_total",
			Help:      "Live activity lookups, by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route and status code.",
		}, []string{"route", "code"}),
	}

	m.turns = register(reg, m.turns)
	m.toolCalls = register(reg, m.toolCalls)
	m.modelDuration = register(reg, m.modelDuration)
	m.activityLookups = register(reg, m.activityLookups)
	m.httpRequests = register(reg, m.httpRequests)
	return m
}

// register adds c to reg, reusing an identical collector that is already there.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// ObserveTurn counts a finished turn.
func (m *Metrics) ObserveTurn(stopReason string) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(stopReason).Inc()
}

// ObserveToolCall counts a backend tool execution.
func (m *Metrics) ObserveToolCall(tool, status string) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, status).Inc()
}

// ObserveModelCall records the latency of one model call.
func (m *Metrics) ObserveModelCall(d time.Duration) {
	if m == nil {
		return
	}
	m.modelDuration.Observe(d.Seconds())
}

// ObserveActivityLookup counts a live activity lookup outcome.
func (m *Metrics) ObserveActivityLookup(result string) {
	if m == nil {
		return
	}
	m.activityLookups.WithLabelValues(result).Inc()
}

// ObserveHTTPRequest counts a served request.
func (m *Metrics) ObserveHTTPRequest(route, code string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, code).Inc()
}
