package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AnalyzeInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "msengine_analyze_invocations_total",
			Help: "Total number of Analyze calls, by outcome.",
		},
		[]string{"outcome"},
	)

	AnalyzeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "msengine_analyze_duration_seconds",
			Help:    "Duration of Analyze calls.",
			Buckets: prometheus.DefBuckets,
		},
	)

	LevelsTruncatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "msengine_levels_truncated_total",
			Help: "Total number of levels dropped by the per-kind cap, by kind.",
		},
		[]string{"kind"},
	)

	OverlayMarkersEmitted = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "msengine_overlay_markers_emitted",
			Help: "Number of markers in the most recently assembled overlay.",
		},
	)
)

func init() {
	prometheus.MustRegister(AnalyzeInvocationsTotal, AnalyzeDuration, LevelsTruncatedTotal, OverlayMarkersEmitted)
}
