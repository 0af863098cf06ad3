package worker

import (
	"sonarfeed/internal/atomics"
	"sonarfeed/internal/metrics"
	"sync/atomic"
	"time"
)

type MetricStorage struct {
	MessagesSent   atomic.Uint64 // Messages written in the interval
	BytesSent      atomic.Uint64 // Bytes written in the interval, delimiters included
	Heartbeats     atomic.Uint64 // Lone delimiters written in the interval
	WriteErrors    atomic.Uint64 // Failed socket writes
	HandshakeBytes atomic.Uint64 // Bytes consumed by the handshake
	SumWriteNs     atomic.Uint64 // Time spent in socket writes
	MaxWriteNs     atomic.Uint64 // Longest single write
}

func (storage *MetricStorage) recordWrite(elapsed time.Duration) {
	if elapsed < 0 {
		return
	}
	storage.SumWriteNs.Add(uint64(elapsed))
	atomics.StoreMax(&storage.MaxWriteNs, uint64(elapsed))
}

// Worker counters plus its mailbox backlog
func (worker *Worker) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	recordTime := time.Now()

	add := func(name string, raw interface{}, unit string, t metrics.MetricType, description string) {
		collection = append(collection, metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   worker.Namespace,
			Type:        t,
			Timestamp:   recordTime,
			Value: metrics.MetricValue{
				Raw:      raw,
				Unit:     unit,
				Interval: interval,
			},
		})
	}

	add("messages_sent", worker.Metrics.MessagesSent.Swap(0), "count", metrics.Counter, "Messages delivered to the client in the interval")
	add("bytes_sent", worker.Metrics.BytesSent.Swap(0), "bytes", metrics.Counter, "Bytes written to the client in the interval")
	add("heartbeats_sent", worker.Metrics.Heartbeats.Swap(0), "count", metrics.Counter, "Heartbeats written to the client in the interval")
	add("write_errors", worker.Metrics.WriteErrors.Swap(0), "count", metrics.Counter, "Failed socket writes in the interval")
	add("write_time_sum_ns", worker.Metrics.SumWriteNs.Swap(0), "ns", metrics.Counter, "Time spent writing to the socket in the interval")
	add("write_time_max_ns", worker.Metrics.MaxWriteNs.Swap(0), "ns", metrics.Summary, "Longest single socket write in the interval")
	add("heartbeat_interval_ns", uint64(worker.Heartbeat()), "ns", metrics.Gauge, "Heartbeat interval negotiated with the client")

	collection = append(collection, worker.Mailbox.CollectMetrics(interval)...)
	return
}
