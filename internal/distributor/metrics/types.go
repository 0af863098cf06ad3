package metrics

import (
	"sonarfeed/internal/metrics"
	"time"
)

// Anything that reports interval metrics
type Collector interface {
	CollectMetrics(interval time.Duration) (collection []metrics.Metric)
}

type Gatherer struct {
	Interval   time.Duration            // Polling interval to gather metrics at
	Retention  time.Duration            // Maximum time to maintain metrics for
	Registry   *metrics.Registry        // Storage for metric data
	Collectors func() (list []Collector) // Components to read each interval (connections come and go)
}
