// Package metrics provides Prometheus metrics for medrecall.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CapturesTotal counts capture attempts by outcome.
	CapturesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medrecall",
			Name:      "captures_total",
			Help:      "Total number of mistake captures",
		},
		[]string{"outcome"},
	)

	// RatingsTotal counts persisted ratings.
	RatingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medrecall",
			Name:      "ratings_total",
			Help:      "Total number of card ratings",
		},
		[]string{"rating"},
	)

	// CorruptRecordsTotal counts card records skipped because they did not parse.
	CorruptRecordsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "medrecall",
			Name:      "corrupt_records_total",
			Help:      "Total number of unparseable card records skipped",
		},
	)

	// ResetsTotal counts bulk deck resets.
	ResetsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "medrecall",
			Name:      "resets_total",
			Help:      "Total number of deck resets",
		},
	)

	// DueCards is the queue length at the last session load.
	DueCards = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "medrecall",
			Name:      "due_cards",
			Help:      "Number of due cards at the last session load",
		},
	)
)
