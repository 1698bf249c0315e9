package autoindex

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// rendersTotal counts render passes by result (ok, not_found, failed, skipped).
	rendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autoindex_renders_total",
		Help: "Total widget render passes by result",
	}, []string{"result"})

	renderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "autoindex_render_duration_seconds",
		Help:    "Duration of completed render passes in seconds",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
	})

	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autoindex_fetches_total",
		Help: "Total content-tree API requests by kind",
	}, []string{"kind"})
)
