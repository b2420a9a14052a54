package client

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Refresh outcomes recorded by Metrics.
const (
	RefreshSuccess   = "success"
	RefreshFailure   = "failure"
	RefreshThrottled = "throttled"
	RefreshShared    = "shared"
)

// Metrics collects client-side request and token refresh counters.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Refreshes       *prometheus.CounterVec
}

// NewMetrics creates the client collectors and registers them with reg when
// it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "modeladmin",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Total number of backend requests",
		}, []string{"method", "status_class"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "modeladmin",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Duration of backend requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "modeladmin",
			Subsystem: "client",
			Name:      "token_refreshes_total",
			Help:      "Token refresh attempts by outcome",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.Requests, m.RequestDuration, m.Refreshes)
	}
	return m
}

func (m *Metrics) observeRequest(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, statusClass(status)).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *Metrics) observeRefresh(outcome string) {
	if m == nil {
		return
	}
	m.Refreshes.WithLabelValues(outcome).Inc()
}

func statusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}
