package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "joewriter_generations_total",
		Help: "Completed generation requests served by the backend.",
	}, []string{"status"})

	GenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "joewriter_generation_duration_seconds",
		Help:    "Upstream latency of generation requests.",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
	})

	ChatStreamsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "joewriter_chat_streams_total",
		Help: "Chat streams served by the backend.",
	}, []string{"status"})

	ChatChunksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "joewriter_chat_chunks_total",
		Help: "Text fragments written to chat streams.",
	})

	StaleResultsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "joewriter_stale_results_total",
		Help: "Generation outcomes discarded because a newer request superseded them.",
	})

	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "joewriter_rate_limited_total",
		Help: "API requests rejected by the rate limiter.",
	})

	WorkspacesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "joewriter_workspaces_active",
		Help: "Browser workspaces currently held in memory.",
	})
)
