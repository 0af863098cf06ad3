package metrics

import (
	"fmt"
	"sonarfeed/internal/calc"
	"sonarfeed/internal/global"
	"strconv"
	"strings"
	"time"
)

// Share of samples dropped from each end for the trimmed average
const trimmedAvgPercent float64 = 0.1

// Combines all values of a metric within the namespace prefix and time window into one summary metric
func (registry *Registry) Aggregate(aggType string, name string, namespacePrefix []string, start, end time.Time) (result Metric, err error) {
	matches := registry.Search(name, namespacePrefix, start, end)
	if len(matches) == 0 {
		err = fmt.Errorf("no metrics named '%s' under '%s' in time window", name, strings.Join(namespacePrefix, "/"))
		return
	}

	var sum, minimum, maximum float64
	values := make([]float64, 0, len(matches))
	for i, metric := range matches {
		var value float64
		value, err = numericValue(metric.Value.Raw)
		if err != nil {
			err = fmt.Errorf("metric '%s' in '%s': %w", metric.Name, strings.Join(metric.Namespace, "/"), err)
			return
		}

		values = append(values, value)
		sum += value
		if i == 0 || value < minimum {
			minimum = value
		}
		if i == 0 || value > maximum {
			maximum = value
		}
	}

	var aggregated float64
	switch aggType {
	case global.MetricSum:
		aggregated = sum
	case global.MetricMin:
		aggregated = minimum
	case global.MetricMax:
		aggregated = maximum
	case global.MetricAvg:
		aggregated = sum / float64(len(matches))
	case global.MetricTrimmedAvg:
		aggregated = calc.TrimmedMean(values, trimmedAvgPercent)
	default:
		err = fmt.Errorf("unknown aggregation type '%s'", aggType)
		return
	}

	first := matches[0]
	result = Metric{
		Name:        first.Name,
		Description: first.Description,
		Namespace:   namespacePrefix,
		Type:        Summary,
		Timestamp:   matches[len(matches)-1].Timestamp,
		Value: MetricValue{
			Raw:      aggregated,
			Unit:     first.Value.Unit,
			Interval: end.Sub(start),
		},
	}
	return
}

// Newest recorded value of a metric in exactly the given namespace
func (registry *Registry) Latest(name string, namespace []string) (latest Metric, found bool) {
	joined := strings.Join(namespace, "/")

	registry.mu.RLock()
	defer registry.mu.RUnlock()

	for i := len(registry.slices) - 1; i >= 0; i-- {
		latest, found = registry.slices[i].entries[joined][name]
		if found {
			return
		}
	}
	return
}

func numericValue(raw any) (value float64, err error) {
	switch typed := raw.(type) {
	case int:
		value = float64(typed)
	case int32:
		value = float64(typed)
	case int64:
		value = float64(typed)
	case uint:
		value = float64(typed)
	case uint32:
		value = float64(typed)
	case uint64:
		value = float64(typed)
	case float32:
		value = float64(typed)
	case float64:
		value = typed
	case string:
		value, err = strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			err = fmt.Errorf("non-numeric value %q", typed)
		}
	default:
		err = fmt.Errorf("non-numeric value of type %T", raw)
	}
	return
}
