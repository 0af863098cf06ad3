package metrics

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Export form served by the query endpoints
func (inMetric Metric) Convert() (outMetric JMetric) {
	outMetric = JMetric{
		Name:        inMetric.Name,
		Description: inMetric.Description,
		Namespace:   strings.Join(inMetric.Namespace, "/"),
		Type:        string(inMetric.Type),
		Timestamp:   inMetric.Timestamp.Format(time.RFC3339Nano),
		Value: JMetricValue{
			Raw:      formatRaw(inMetric.Value.Raw),
			Unit:     inMetric.Value.Unit,
			Interval: inMetric.Value.Interval.String(),
		},
	}
	return
}

// Shortest exact text for floats, non-finite values spelled the way feed messages spell them
func formatRaw(raw any) (text string) {
	var value float64
	var bits int
	switch typed := raw.(type) {
	case float64:
		value, bits = typed, 64
	case float32:
		value, bits = float64(typed), 32
	default:
		text = fmt.Sprintf("%v", raw)
		return
	}

	switch {
	case math.IsNaN(value):
		text = "NaN"
	case math.IsInf(value, 1):
		text = "Infinity"
	case math.IsInf(value, -1):
		text = "-Infinity"
	default:
		text = strconv.FormatFloat(value, 'f', -1, bits)
	}
	return
}
