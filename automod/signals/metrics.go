package signals

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var moderationAPICount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safefeed_moderation_api_requests",
	Help: "Number of text moderation API requests, by HTTP status code",
}, []string{"status"})

var moderationAPIDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "safefeed_moderation_api_duration_sec",
	Help: "Duration of text moderation API requests",
})

var taggerAPICount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safefeed_tagger_api_requests",
	Help: "Number of image tagger API requests, by HTTP status code",
}, []string{"status"})

var taggerAPIDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "safefeed_tagger_api_duration_sec",
	Help: "Duration of image tagger API requests",
})

var imageCheckAPICount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safefeed_image_check_api_requests",
	Help: "Number of AI-generation image check requests, by HTTP status code",
}, []string{"status"})

var imageCheckAPIDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "safefeed_image_check_api_duration_sec",
	Help: "Duration of AI-generation image check requests",
})

var extractorErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safefeed_extractor_errors",
	Help: "Number of classifier failures recovered with default signals",
}, []string{"extractor"})
