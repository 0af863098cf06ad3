package mailbox

import (
	"sonarfeed/internal/metrics"
	"time"
)

// Snapshot of queue counters, interval counters are reset
func (box *Mailbox[T]) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	recordTime := time.Now()

	add := func(name string, raw interface{}, unit string, t metrics.MetricType, description string) {
		collection = append(collection, metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   box.Namespace,
			Type:        t,
			Timestamp:   recordTime,
			Value: metrics.MetricValue{
				Raw:      raw,
				Unit:     unit,
				Interval: interval,
			},
		})
	}

	add("depth", box.Metrics.Depth.Load(), "count", metrics.Gauge, "Current number of messages waiting for delivery")
	add("byte_sum", box.Metrics.Bytes.Load(), "bytes", metrics.Gauge, "Byte sum of all messages waiting for delivery")
	add("peak_depth", box.Metrics.PeakDepth.Swap(0), "count", metrics.Gauge, "Highest backlog seen in the interval")
	add("pushes", box.Metrics.Pushes.Swap(0), "count", metrics.Counter, "Messages queued in the interval")
	add("dropped", box.Metrics.Dropped.Swap(0), "count", metrics.Counter, "Messages discarded because the mailbox was closed")
	add("drains", box.Metrics.Drains.Swap(0), "count", metrics.Counter, "Non-empty drains in the interval")
	add("wait_timeouts", box.Metrics.Timeouts.Swap(0), "count", metrics.Counter, "Waits that expired without a message (heartbeats)")

	return
}
