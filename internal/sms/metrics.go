package sms

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	smsSendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "attendly",
			Name:      "sms_sends_total",
			Help:      "SMS send attempts by provider and outcome.",
		},
		[]string{"provider", "status"},
	)

	smsProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "attendly",
			Name:      "sms_provider_request_duration_seconds",
			Help:      "Duration of provider send calls.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
)
