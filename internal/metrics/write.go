package metrics

import (
	"slices"
	"strings"
	"time"
)

// Opens (or reuses) the slice for the interval containing now and returns its start
func (registry *Registry) NewTimeSlice(now time.Time, interval time.Duration) (start time.Time) {
	start = now
	if interval > 0 {
		start = now.Truncate(interval)
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	index, exact := registry.locate(start)
	if exact {
		return
	}
	registry.slices = slices.Insert(registry.slices, index, timeSlice{
		start:   start,
		entries: make(map[string]map[string]Metric),
	})
	return
}

// Stores a batch in the slice opened for start. Batches for unknown slices are dropped.
// A later metric with the same namespace and name replaces the earlier one,
// except uint64 counters which accumulate.
func (registry *Registry) Add(start time.Time, batch []Metric) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	index, exact := registry.locate(start)
	if !exact {
		return
	}
	entries := registry.slices[index].entries

	for _, metric := range batch {
		namespace := strings.Join(metric.Namespace, "/")
		if entries[namespace] == nil {
			entries[namespace] = make(map[string]Metric)
		}
		previous, seen := entries[namespace][metric.Name]
		if seen && metric.Type == Counter && previous.Type == Counter {
			prevCount, prevOK := previous.Value.Raw.(uint64)
			count, ok := metric.Value.Raw.(uint64)
			if prevOK && ok {
				metric.Value.Raw = prevCount + count
			}
		}
		entries[namespace][metric.Name] = metric
	}
}
