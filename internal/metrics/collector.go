package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "chainwait"

// Poll outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Collector owns the Prometheus metrics for chain waits.
// All methods are safe for concurrent use.
type Collector struct {
	registry *prometheus.Registry

	polls        *prometheus.CounterVec
	waits        *prometheus.CounterVec
	waitDuration *prometheus.HistogramVec
	lastHeight   prometheus.Gauge
}

// NewCollector creates a collector backed by its own registry
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Number of latest-block queries issued by waiters.",
		}, []string{"waiter", "outcome"}),
		waits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "waits_total",
			Help:      "Number of completed waits by result.",
		}, []string{"waiter", "result"}),
		waitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "wait_duration_seconds",
			Help:      "Time spent inside a wait call.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"waiter"}),
		lastHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_height",
			Help:      "Last commit height seen by any poll.",
		}),
	}

	c.registry.MustRegister(c.polls, c.waits, c.waitDuration, c.lastHeight)
	return c
}

// GetRegistry returns the Prometheus registry holding the collector's metrics
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}

// ObservePoll records a single chain query. height is only meaningful when ok is true.
func (c *Collector) ObservePoll(waiter string, ok bool, height uint64) {
	if !ok {
		c.polls.WithLabelValues(waiter, OutcomeFailure).Inc()
		return
	}
	c.polls.WithLabelValues(waiter, OutcomeSuccess).Inc()
	c.lastHeight.Set(float64(height))
}

// ObserveWait records a finished wait call
func (c *Collector) ObserveWait(waiter string, result string, elapsed time.Duration) {
	c.waits.WithLabelValues(waiter, result).Inc()
	c.waitDuration.WithLabelValues(waiter).Observe(elapsed.Seconds())
}
