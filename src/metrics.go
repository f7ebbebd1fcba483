package main

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// relayMetrics tracks poll outcomes, upstream requests and stream clients
type relayMetrics struct {
	polls           *prometheus.CounterVec
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	clients         prometheus.Gauge
	failedPaths     prometheus.Gauge
	gatherer        prometheus.Gatherer
}

// newRelayMetrics creates the collectors and registers them with a fresh registry
func newRelayMetrics() *relayMetrics {
	reg := prometheus.NewRegistry()

	m := &relayMetrics{
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tswdash_polls_total",
			Help: "Poll ticks by outcome.",
		}, []string{"result"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tswdash_upstream_requests_total",
			Help: "Requests to the simulator API by operation and outcome.",
		}, []string{"op", "result"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tswdash_upstream_request_duration_seconds",
			Help:    "Latency of requests to the simulator API.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		}, []string{"op"}),
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tswdash_stream_clients",
			Help: "Currently attached stream subscribers.",
		}),
		failedPaths: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tswdash_subscription_failed_paths",
			Help: "Paths that could not be subscribed in the last setup.",
		}),
		gatherer: reg,
	}

	reg.MustRegister(m.polls, m.requests, m.requestDuration, m.clients, m.failedPaths)
	return m
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveRequest implements upstream.Observer
func (m *relayMetrics) ObserveRequest(op string, err error, elapsed time.Duration) {
	m.requests.WithLabelValues(op, resultLabel(err)).Inc()
	m.requestDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObservePoll counts one poll tick
func (m *relayMetrics) ObservePoll(err error) {
	m.polls.WithLabelValues(resultLabel(err)).Inc()
}

// SetClients records the number of attached stream subscribers
func (m *relayMetrics) SetClients(n int) {
	m.clients.Set(float64(n))
}

// SetFailedPaths records how many subscription paths failed to register
func (m *relayMetrics) SetFailedPaths(n int) {
	m.failedPaths.Set(float64(n))
}

// Handler serves the registry in the Prometheus text format
func (m *relayMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
