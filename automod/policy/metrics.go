package policy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var assistantAPICount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safefeed_assistant_api_requests",
	Help: "Number of assistant API requests, by HTTP status code",
}, []string{"status"})

var assistantAPIDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "safefeed_assistant_api_duration_sec",
	Help: "Duration of complete assistant analysis calls",
})

var assistantThreadLeaks = promauto.NewCounter(prometheus.CounterOpts{
	Name: "safefeed_assistant_thread_delete_failures",
	Help: "Number of assistant threads which could not be deleted after a check",
})

var checkDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "safefeed_policy_check_duration_sec",
	Help: "Duration of policy checks, including degraded ones",
})

var checkFailureCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safefeed_policy_check_failures",
	Help: "Number of policy checks degraded to the neutral verdict",
}, []string{"stage"})

var verdictParseFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "safefeed_verdict_parse_failures",
	Help: "Number of checker responses that could not be parsed",
})
