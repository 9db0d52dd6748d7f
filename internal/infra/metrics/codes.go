package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(codeRedemptionsTotal)
}

var codeRedemptionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "code_redemptions_total",
		Help: "Activation code redemption attempts by outcome (valid/invalid/expired/exhausted/already_used/error).",
	},
	[]string{"outcome"},
)

func IncCodeRedemption(outcome string) {
	codeRedemptionsTotal.WithLabelValues(norm(outcome)).Inc()
}
