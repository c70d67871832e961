package verification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	verificationOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_operations_total",
			Help: "Verification provider operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	widgetsLive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "verification_widgets_live",
			Help: "Number of live verification widgets held by adapters",
		},
	)
)

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case isKnown(err):
		return kindOf(err)
	default:
		return "error"
	}
}

func kindOf(err error) string {
	switch {
	case isErr(err, ErrInvalidPhoneFormat):
		return "invalid_phone"
	case isErr(err, ErrRateLimited):
		return "rate_limited"
	case isErr(err, ErrChallengeFailed):
		return "challenge_failed"
	case isErr(err, ErrProviderUnavailable):
		return "unavailable"
	case isErr(err, ErrInvalidCode):
		return "invalid_code"
	case isErr(err, ErrCodeExpired):
		return "expired"
	case isErr(err, ErrChallengeConsumed):
		return "consumed"
	case isErr(err, ErrInvalidHandle):
		return "invalid_handle"
	default:
		return "torn_down"
	}
}
