package metrics

import (
	"maps"
	"slices"
	"sort"
	"strings"
	"time"
)

// Empty query matches everything, otherwise query must be a leading part of the namespace
func matchesNamespace(metricNS []string, queryNS []string) (matches bool) {
	if len(queryNS) > len(metricNS) {
		return
	}
	matches = slices.Equal(metricNS[:len(queryNS)], queryNS)
	return
}

// Visits slices inside [start, end] oldest first, zero bounds are open.
// Namespaces within a slice are visited in sorted order. Caller holds the read lock.
func (registry *Registry) eachInWindow(start, end time.Time, namespacePrefix []string, visit func(namespace []string, byName map[string]Metric)) {
	first := 0
	if !start.IsZero() {
		first, _ = registry.locate(start)
	}

	for _, slice := range registry.slices[first:] {
		if !end.IsZero() && slice.start.After(end) {
			break
		}
		for _, joined := range slices.Sorted(maps.Keys(slice.entries)) {
			namespace := strings.Split(joined, "/")
			if !matchesNamespace(namespace, namespacePrefix) {
				continue
			}
			visit(namespace, slice.entries[joined])
		}
	}
}

// Every recorded metric with the given name (any name when empty) under the namespace prefix,
// oldest first. Zero start or end leaves that side of the window open.
func (registry *Registry) Search(name string, namespacePrefix []string, start, end time.Time) (results []Metric) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	registry.eachInWindow(start, end, namespacePrefix, func(_ []string, byName map[string]Metric) {
		if name != "" {
			metric, ok := byName[name]
			if ok {
				results = append(results, metric)
			}
			return
		}
		for _, metricName := range slices.Sorted(maps.Keys(byName)) {
			results = append(results, byName[metricName])
		}
	})
	return
}

// Lists the distinct metrics on record (time-independent), stripped of values.
// Name and description match by substring, unit and type exactly. Empty filters match all.
func (registry *Registry) Discover(name, description string, namespacePrefix []string, unit string, metricType MetricType) (results []Metric) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	seen := make(map[string]bool)
	registry.eachInWindow(time.Time{}, time.Time{}, namespacePrefix, func(namespace []string, byName map[string]Metric) {
		for _, metric := range byName {
			if name != "" && !strings.Contains(metric.Name, name) {
				continue
			}
			if description != "" && !strings.Contains(metric.Description, description) {
				continue
			}
			if unit != "" && metric.Value.Unit != unit {
				continue
			}
			if metricType != "" && metric.Type != metricType {
				continue
			}

			key := strings.Join(namespace, "/") + "|" + metric.Name + "|" + string(metric.Type) + "|" + metric.Value.Unit
			if seen[key] {
				continue
			}
			seen[key] = true

			results = append(results, Metric{
				Name:        metric.Name,
				Description: metric.Description,
				Namespace:   metric.Namespace,
				Type:        metric.Type,
				Value:       MetricValue{Unit: metric.Value.Unit},
			})
		}
	})

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Name != results[j].Name {
			return results[i].Name < results[j].Name
		}
		return strings.Join(results[i].Namespace, "/") < strings.Join(results[j].Namespace, "/")
	})
	return
}
