package spatial

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records gateway operation latency and failures.
type Metrics struct {
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

// NewMetrics creates the gateway collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fieldrecords",
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Latency of spatial store operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fieldrecords",
			Subsystem: "store",
			Name:      "errors_total",
			Help:      "Spatial store operations that returned an error.",
		}, []string{"op"}),
	}
	for _, c := range []prometheus.Collector{m.duration, m.errors} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		m.errors.WithLabelValues(op).Inc()
	}
}
