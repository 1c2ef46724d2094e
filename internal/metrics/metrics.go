// Package metrics exposes prometheus counters for the progress engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	completions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kodein",
		Subsystem: "progress",
		Name:      "completions_total",
		Help:      "Lesson completion attempts by outcome.",
	}, []string{"status"})

	xpAwarded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kodein",
		Subsystem: "progress",
		Name:      "xp_awarded_total",
		Help:      "Total XP granted across all awards.",
	})

	repairs = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kodein",
		Subsystem: "progress",
		Name:      "xp_repairs_total",
		Help:      "Missing-XP repairs performed for already-completed lessons.",
	})
)

// ObserveCompletion records the outcome of one completion attempt.
func ObserveCompletion(status string) {
	completions.WithLabelValues(status).Inc()
}

// ObserveAward records successfully granted XP.
func ObserveAward(amount int) {
	xpAwarded.Add(float64(amount))
}

// ObserveRepair records one missing-XP repair.
func ObserveRepair() {
	repairs.Inc()
}

// Handler serves the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
