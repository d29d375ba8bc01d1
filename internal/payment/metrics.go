package payment

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	webhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "attendly",
			Name:      "payment_webhook_events_total",
			Help:      "Inbound payment webhook events by verification outcome.",
		},
		[]string{"outcome"}, // verified, rejected
	)

	planUpgradesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "attendly",
			Name:      "plan_upgrades_total",
			Help:      "Accounts upgraded to PRO by verified webhook events.",
		},
	)
)
