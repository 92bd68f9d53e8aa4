package indicator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	engineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indicator_runs_total",
			Help: "Total number of indicator engine runs",
		},
		[]string{"status"}, // "success" or "error"
	)

	engineRowsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "indicator_rows_total",
			Help: "Total number of indicator rows produced",
		},
	)

	studyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "indicator_study_duration_seconds",
			Help:    "Time spent computing one study over a full series",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"study"},
	)
)
