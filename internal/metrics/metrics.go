package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ProviderCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickerboard_provider_calls_total",
			Help: "Outbound provider calls by outcome",
		},
		[]string{"provider", "outcome"},
	)
	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tickerboard_cache_hits_total",
			Help: "Request cache hits",
		},
	)
	CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tickerboard_cache_misses_total",
			Help: "Request cache misses",
		},
	)
	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tickerboard_rate_limit_queue_depth",
			Help: "Calls waiting in the rate-limit queue",
		},
	)
	Refreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickerboard_widget_refreshes_total",
			Help: "Completed widget refresh cycles by result",
		},
		[]string{"widget_type", "result"},
	)
	RefreshLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tickerboard_widget_refresh_seconds",
			Help:    "Widget refresh cycle latency",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 15, 30, 60},
		},
		[]string{"widget_type"},
	)
	ActiveTimers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tickerboard_active_timers",
			Help: "Widgets with a scheduled refresh timer",
		},
	)
)

// Register adds all collectors to r.
func Register(r prometheus.Registerer) {
	r.MustRegister(ProviderCalls, CacheHits, CacheMisses, QueueDepth, Refreshes, RefreshLatency, ActiveTimers)
}
