package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var itemProcessDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "safefeed_item_duration_sec",
	Help: "Total duration of item pipeline processing",
}, []string{"kind"})

var itemProcessCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safefeed_items_processed",
	Help: "Number of items which reached a decision",
}, []string{"kind"})

var itemSkipCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safefeed_items_skipped",
	Help: "Number of already-processed items skipped by dedup",
}, []string{"kind"})

var itemErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safefeed_item_errors",
	Help: "Number of items which failed to reach a decision",
}, []string{"kind"})

var removalCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safefeed_removals",
	Help: "Number of removal decisions executed",
}, []string{"kind"})

var enforcementErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safefeed_enforcement_errors",
	Help: "Number of failed enforcement actions (logged, not retried)",
}, []string{"action"})

var batchErrorCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "safefeed_batch_errors",
	Help: "Number of community batches abandoned without watermark advance",
})
