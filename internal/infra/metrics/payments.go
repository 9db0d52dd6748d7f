package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		checkoutSessionsTotal,
		paymentIntentsTotal,
		webhookEventsTotal,
	)
}

var (
	checkoutSessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_sessions_total",
			Help: "Hosted checkout sessions created, by result (created/failed).",
		},
		[]string{"result"},
	)

	paymentIntentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_intents_total",
			Help: "Embedded payment intents created, by result and whether a promotion applied.",
		},
		[]string{"result", "discounted"},
	)

	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Processor webhook events, by type and outcome (handled/ignored/rejected).",
		},
		[]string{"type", "outcome"},
	)
)

func IncCheckoutSession(result string) {
	checkoutSessionsTotal.WithLabelValues(norm(result)).Inc()
}

func IncPaymentIntent(result string, discounted bool) {
	d := "false"
	if discounted {
		d = "true"
	}
	paymentIntentsTotal.WithLabelValues(norm(result), d).Inc()
}

func IncWebhookEvent(eventType, outcome string) {
	webhookEventsTotal.WithLabelValues(norm(eventType), norm(outcome)).Inc()
}
