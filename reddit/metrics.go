package reddit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var apiCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safefeed_reddit_api_requests",
	Help: "Number of reddit API requests",
}, []string{"method", "path"})

var apiDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "safefeed_reddit_api_duration_sec",
	Help:    "Duration of reddit API requests, in seconds",
	Buckets: prometheus.ExponentialBucketsRange(0.01, 10, 10),
})

var tokenRefreshCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safefeed_reddit_token_refreshes",
	Help: "Number of reddit OAuth token refreshes",
}, []string{"status"})

var removeCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "safefeed_reddit_removals",
	Help: "Number of reddit removal API calls",
})

var noticeCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "safefeed_reddit_notices",
	Help: "Number of reddit notice comments posted",
})

var enforceErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safefeed_reddit_enforce_errors",
	Help: "Number of failed reddit enforcement actions",
}, []string{"stage"})
