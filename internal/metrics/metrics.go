package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/MuchTitan/go-log-transport/internal/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	deliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "logtransport",
			Subsystem: "delivery",
			Name:      "attempts_total",
			Help:      "Delivery attempts per target and outcome.",
		}, []string{"target", "outcome"},
	)
	deliveredBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "logtransport",
			Subsystem: "delivery",
			Name:      "bytes_total",
			Help:      "Bytes accepted by the collector per target.",
		}, []string{"target"},
	)
	cycles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "logtransport",
			Subsystem: "cycle",
			Name:      "runs_total",
			Help:      "Completed transport cycles.",
		},
	)
	cycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "logtransport",
			Subsystem: "cycle",
			Name:      "duration_seconds",
			Help:      "Wall time of a transport cycle.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	cycleRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "logtransport",
			Subsystem: "cycle",
			Name:      "running",
			Help:      "1 while a cycle holds the gate.",
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{deliveries, deliveredBytes, cycles, cycleDuration, cycleRunning}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler serves the default gatherer.
func Handler() http.Handler { return promhttp.Handler() }

// Observer feeds delivery records into the collectors. It no-ops until
// Register has succeeded.
type Observer struct{}

func (Observer) Observe(d transport.Delivery) {
	if !regOK.Load() {
		return
	}
	deliveries.WithLabelValues(d.Target, string(d.Outcome)).Inc()
	if d.Outcome == transport.OutcomeSent {
		deliveredBytes.WithLabelValues(d.Target).Add(float64(d.Bytes))
	}
}

func (Observer) CycleStarted() {
	if regOK.Load() {
		cycleRunning.Set(1)
	}
}

func (Observer) CycleFinished(elapsed time.Duration) {
	if !regOK.Load() {
		return
	}
	cycleRunning.Set(0)
	cycles.Inc()
	cycleDuration.Observe(elapsed.Seconds())
}
