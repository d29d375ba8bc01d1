package quota

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	quotaReservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "attendly",
			Name:      "quota_reservations_total",
			Help:      "Successful monthly-quota reservations.",
		},
		[]string{"plan"},
	)

	quotaRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "attendly",
			Name:      "quota_rejections_total",
			Help:      "Reservations rejected because the monthly cap was reached.",
		},
		[]string{"plan"},
	)

	rateLimitRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "attendly",
			Name:      "rate_limit_rejections_total",
			Help:      "Send requests rejected by the per-account throttle.",
		},
	)
)
