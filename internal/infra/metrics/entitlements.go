package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		entitlementsActivatedTotal,
		entitlementsExpiredTotal,
	)
}

var (
	entitlementsActivatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlements_activated_total",
			Help: "Entitlement activations by source (checkout/webhook/code).",
		},
		[]string{"source"},
	)

	entitlementsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "entitlements_expired_total",
			Help: "Total entitlements processed by the expiration sweeper.",
		},
	)
)

func IncEntitlementActivated(source string) {
	entitlementsActivatedTotal.WithLabelValues(norm(source)).Inc()
}

func IncEntitlementsExpired(count int) {
	entitlementsExpiredTotal.Add(float64(count))
}
