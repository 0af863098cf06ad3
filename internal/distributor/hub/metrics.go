package hub

import (
	"sonarfeed/internal/atomics"
	"sonarfeed/internal/calc"
	"sonarfeed/internal/metrics"
	"time"
)

// Share of consumers dropped from each end before averaging backlog depth
const backlogTrimPercent float64 = 0.1

func (storage *MetricStorage) recordConvert(elapsed time.Duration) {
	if elapsed < 0 {
		return
	}
	storage.SumConvertNs.Add(uint64(elapsed))
	atomics.StoreMax(&storage.MaxConvertNs, uint64(elapsed))
}

// Hub level counters. Worker metrics are collected per worker.
func (hub *Hub) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	recordTime := time.Now()

	var depths []uint64
	var maxDepth uint64
	for _, active := range hub.Snapshot() {
		depth := uint64(active.Mailbox.Len())
		depths = append(depths, depth)
		if depth > maxDepth {
			maxDepth = depth
		}
	}

	received := hub.Metrics.Received.Swap(0)
	sumNs := hub.Metrics.SumConvertNs.Swap(0)
	var avgNs uint64
	if received > 0 {
		avgNs = sumNs / received
	}

	add := func(name string, raw interface{}, unit string, t metrics.MetricType, description string) {
		collection = append(collection, metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   hub.Namespace,
			Type:        t,
			Timestamp:   recordTime,
			Value: metrics.MetricValue{
				Raw:      raw,
				Unit:     unit,
				Interval: interval,
			},
		})
	}

	add("active_connections", uint64(hub.Count()), "count", metrics.Gauge, "Consumers currently connected")
	add("accepted_total", hub.Metrics.Accepted.Swap(0), "count", metrics.Counter, "Connections accepted in the interval")
	add("accept_errors", hub.Metrics.AcceptErrors.Swap(0), "count", metrics.Counter, "Failed accepts in the interval")
	add("disconnected_total", hub.Metrics.Disconnected.Swap(0), "count", metrics.Counter, "Consumers dropped after a failed write in the interval")
	add("upstream_received", received, "count", metrics.Counter, "Upstream messages received in the interval")
	add("upstream_errors", hub.Metrics.UpstreamErrors.Swap(0), "count", metrics.Counter, "Failed upstream reads in the interval")
	add("decode_errors", hub.Metrics.DecodeErrors.Swap(0), "count", metrics.Counter, "Upstream messages dropped as undecodable in the interval")
	add("broadcasts", hub.Metrics.Broadcasts.Swap(0), "count", metrics.Counter, "Messages fanned out in the interval")
	add("deliveries", hub.Metrics.Deliveries.Swap(0), "count", metrics.Counter, "Messages queued to consumers in the interval")
	add("encoded_bytes", hub.Metrics.EncodedBytes.Swap(0), "bytes", metrics.Counter, "Bytes of encoded messages in the interval")
	add("backlog_depth_mean", calc.TrimmedMean(depths, backlogTrimPercent), "messages", metrics.Summary, "Mean consumer backlog ignoring the most and least loaded consumers")
	add("backlog_depth_max", maxDepth, "messages", metrics.Summary, "Deepest consumer backlog")
	add("convert_time_avg_ns", avgNs, "ns", metrics.Summary, "Average time to decode and encode one upstream message")
	add("convert_time_max_ns", hub.Metrics.MaxConvertNs.Swap(0), "ns", metrics.Summary, "Longest decode and encode of one upstream message")

	return
}
