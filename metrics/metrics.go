package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Refresh outcomes.
const (
	RefreshSuccess = "success"
	RefreshFailure = "failure"
)

// Collector groups the gateway's Prometheus instruments. A nil *Collector is
// valid and records nothing.
type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RefreshTotal    *prometheus.CounterVec
}

// NewCollector registers the instruments on reg. A nil reg leaves them
// unregistered, which is handy in tests.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_client_requests_total",
				Help: "Requests sent through the authenticated gateway",
			},
			[]string{"method", "status", "attempt"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "auth_client_request_duration_seconds",
				Help:    "Latency of single gateway attempts in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method"},
		),
		RefreshTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_client_token_refresh_total",
				Help: "Token refresh attempts by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// ObserveRequest records one attempt. status 0 means no response arrived.
func (c *Collector) ObserveRequest(method string, status int, attempt string, elapsed time.Duration) {
	if c == nil {
		return
	}
	label := "transport_error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	c.RequestsTotal.WithLabelValues(method, label, attempt).Inc()
	c.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (c *Collector) ObserveRefresh(outcome string) {
	if c == nil {
		return
	}
	c.RefreshTotal.WithLabelValues(outcome).Inc()
}
