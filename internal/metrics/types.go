package metrics

import (
	"sync"
	"time"
)

// Metrics grouped by collection interval, oldest interval first
type Registry struct {
	mu     sync.RWMutex
	slices []timeSlice
}

// Everything recorded in one interval, keyed by joined namespace then metric name
type timeSlice struct {
	start   time.Time
	entries map[string]map[string]Metric
}

type MetricType string

const (
	Counter MetricType = "counter" // Events since the previous interval
	Gauge   MetricType = "gauge"   // Point in time level
	Summary MetricType = "summary" // Derived from a set of samples (mean, max)
)

// One recorded value with its identity
type Metric struct {
	Name        string   // broadcasts, backlog_bytes
	Namespace   []string // Distributor/Hub/Worker/3
	Description string
	Type        MetricType
	Value       MetricValue
	Timestamp   time.Time // Start of the interval it was collected in
}

type MetricValue struct {
	Raw      any // uint64 or float64
	Unit     string
	Interval time.Duration // Collection interval the value covers
}

// Metric as served over HTTP, every value rendered as text
type JMetric struct {
	Name        string       `json:"name"`
	Namespace   string       `json:"namespace"`
	Description string       `json:"description"`
	Type        string       `json:"type"`
	Value       JMetricValue `json:"value"`
	Timestamp   string       `json:"timestamp"`
}

type JMetricValue struct {
	Raw      string `json:"raw"`
	Unit     string `json:"unit"`
	Interval string `json:"interval"`
}
