package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	SweepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "coinsentry",
			Subsystem: "monitor",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of one monitor sweep over active positions",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	SweepPositions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "coinsentry",
			Subsystem: "monitor",
			Name:      "positions",
			Help:      "Active positions seen by the last sweep",
		},
		[]string{"symbol"},
	)

	SweepErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coinsentry",
			Subsystem: "monitor",
			Name:      "sweep_errors_total",
			Help:      "Errors by sweep stage",
		},
		[]string{"stage"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(SweepDuration, SweepPositions, SweepErrors)
	})
}
