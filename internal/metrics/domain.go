package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	hierarchyMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hierarchy_mutations_total",
			Help:      "Tag hierarchy mutations by operation and outcome",
		},
		[]string{"op", "result"},
	)

	searchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "File search duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"conjunction"},
	)

	criteriaFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "criteria_fallbacks_total",
			Help:      "Stored criteria replaced by a default query on load",
		},
	)

	persistFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Background writes that failed, by target",
		},
		[]string{"target"},
	)

	sseClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sse_clients",
			Help:      "Connected event stream clients",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestDuration,
		httpRequestsTotal,
		hierarchyMutationsTotal,
		searchDuration,
		criteriaFallbacksTotal,
		persistFailuresTotal,
		sseClients,
	)
}

// HierarchyMutation counts one hierarchy operation. err decides the result label.
func HierarchyMutation(op string, err error) {
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	hierarchyMutationsTotal.WithLabelValues(op, result).Inc()
}

// ObserveSearch records how long a search took.
func ObserveSearch(conjunction string, d time.Duration) {
	searchDuration.WithLabelValues(conjunction).Observe(d.Seconds())
}

// CriteriaFallback counts a stored criteria that was replaced on load.
func CriteriaFallback() {
	criteriaFallbacksTotal.Inc()
}

// PersistFailure counts a failed background write.
func PersistFailure(target string) {
	persistFailuresTotal.WithLabelValues(target).Inc()
}

// SetSSEClients reports the number of connected event stream clients.
func SetSSEClients(n int) {
	sseClients.Set(float64(n))
}
