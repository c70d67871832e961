package onboarding

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stepTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_step_transitions_total",
			Help: "Onboarding wizard step transitions",
		},
		[]string{"from", "to"},
	)

	activeFlows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "onboarding_active_flows",
			Help: "Onboarding flows currently held in memory",
		},
	)

	staleResults = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "onboarding_stale_results_total",
			Help: "Async results discarded because the flow was reset meanwhile",
		},
	)
)
