// Package metrics defines the Prometheus collectors exported on /metrics.
//
// All recording methods are safe to call on a nil *Metrics, which records
// nothing. Tests and tools that do not care about metrics pass nil.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "coursecast"

// Metrics groups the service's collectors around one registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	operations *prometheus.CounterVec

	tournamentsCreated prometheus.Counter
	codeCollisions     prometheus.Counter
	teamsCreated       prometheus.Counter
	scoresRecorded     prometheus.Counter
	scoreboardCache    *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry along
// with the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Service operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		tournamentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tournaments_created_total",
			Help:      "Tournaments created.",
		}),
		codeCollisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tournament_code_collisions_total",
			Help:      "Tournament code draws that hit an existing code.",
		}),
		teamsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "teams_created_total",
			Help:      "Teams created.",
		}),
		scoresRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scores_recorded_total",
			Help:      "Hole scores written.",
		}),
		scoreboardCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scoreboard_cache_total",
			Help:      "Scoreboard cache lookups by result (hit, miss, error).",
		}, []string{"result"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.operations,
		m.tournamentsCreated,
		m.codeCollisions,
		m.teamsCreated,
		m.scoresRecorded,
		m.scoreboardCache,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTP records one finished request.
func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// Operation records the outcome of a service operation.
func (m *Metrics) Operation(name, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(name, outcome).Inc()
}

func (m *Metrics) TournamentCreated() {
	if m == nil {
		return
	}
	m.tournamentsCreated.Inc()
}

func (m *Metrics) CodeCollision() {
	if m == nil {
		return
	}
	m.codeCollisions.Inc()
}

func (m *Metrics) TeamCreated() {
	if m == nil {
		return
	}
	m.teamsCreated.Inc()
}

func (m *Metrics) ScoreRecorded() {
	if m == nil {
		return
	}
	m.scoresRecorded.Inc()
}

// ScoreboardCache records a cache lookup result: "hit", "miss" or "error".
func (m *Metrics) ScoreboardCache(result string) {
	if m == nil {
		return
	}
	m.scoreboardCache.WithLabelValues(result).Inc()
}
