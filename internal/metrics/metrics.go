package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nutrition_lookups_total",
			Help: "Total number of nutrition lookups by outcome and answering source",
		},
		[]string{"outcome", "source"},
	)

	ProviderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nutrition_provider_failures_total",
			Help: "Total number of failed provider calls",
		},
		[]string{"provider", "reason"},
	)

	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nutrition_provider_duration_seconds",
			Help:    "Duration of outbound provider calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	RemoteCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nutrition_remote_cache_lookups_total",
			Help: "Remote provider memo cache lookups by result",
		},
		[]string{"result"},
	)

	CustomFoodsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nutrition_custom_foods_written_total",
			Help: "Custom food additions by persistence result",
		},
		[]string{"result"},
	)
)
