package server

import (
	"context"
	metricGlb "sonarfeed/internal/metrics"
	"time"
)

type httpLogWriter struct {
	ctx context.Context
}

type Jerror struct {
	Msg string `json:"error"`
}

type DataSearcher func(name string, namespacePrefix []string, start, end time.Time) []metricGlb.Metric
type Discoverer func(name, description string, namespacePrefix []string, unit string, metricType metricGlb.MetricType) []metricGlb.Metric
type AggSearcher func(aggType, name string, namespacePrefix []string, start, end time.Time) (metricGlb.Metric, error)
type ConnectionLister func() []ConnectionStatus

// Query backends wired into the HTTP routes
type Queries struct {
	Search      DataSearcher
	Discover    Discoverer
	Aggregate   AggSearcher
	Connections ConnectionLister
}

// Live view of one consumer connection
type ConnectionStatus struct {
	ID           uint64 `json:"id"`
	RemoteAddr   string `json:"remote"`
	State        string `json:"state"`
	Host         string `json:"host,omitempty"`
	Heartbeat    string `json:"heartbeat"`
	BacklogDepth int    `json:"backlog_depth"`
	BacklogBytes uint64 `json:"backlog_bytes"`
}
