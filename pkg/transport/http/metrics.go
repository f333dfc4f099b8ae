package httptransport

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts dispatched requests by method and status code. A nil
// *Metrics records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the collectors on registerer. Clients sharing a
// registerer share the collectors already registered there.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jamfpro",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Requests sent to the server, by method and status code.",
		}, []string{"method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "jamfpro",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Time until response headers, by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	if registerer == nil {
		return m, nil
	}

	requests, err := register(registerer, m.requests)
	if err != nil {
		return nil, err
	}
	duration, err := register(registerer, m.duration)
	if err != nil {
		return nil, err
	}
	m.requests, m.duration = requests, duration
	return m, nil
}

func register[C prometheus.Collector](registerer prometheus.Registerer, collector C) (C, error) {
	err := registerer.Register(collector)
	if err == nil {
		return collector, nil
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	var zero C
	return zero, err
}

func (m *Metrics) observe(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(method, code).Inc()
	m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}
