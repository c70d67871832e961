package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "linkwise",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Publish attempts by topic and outcome (ok or error).",
		},
		[]string{"topic", "outcome"},
	)

	publishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "linkwise",
			Subsystem: "kafka",
			Name:      "publish_duration_seconds",
			Help:      "Time spent handing a message to the writer.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"topic"},
	)
)
