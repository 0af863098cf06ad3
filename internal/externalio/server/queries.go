package server

import (
	"context"
	"fmt"
	"net/http"
	"sonarfeed/internal/global"
	"sonarfeed/internal/metrics"
	"strings"
	"time"
)

// Parameters shared by the metric routes
type metricRequest struct {
	name      string
	namespace []string
	start     time.Time
	end       time.Time
}

// Reads the metric name, the namespace (path after route) and, if windowed, the time range
func parseMetricRequest(clientRequest *http.Request, route string, windowed bool) (req metricRequest, err error) {
	req.name = clientRequest.FormValue("name")
	req.namespace = splitNamespace(strings.TrimPrefix(clientRequest.URL.Path, route))
	if windowed {
		req.start, req.end, err = parseWindow(clientRequest)
	}
	return
}

// Path remainder to namespace list, surrounding slashes ignored
func splitNamespace(rawNamespace string) (namespace []string) {
	rawNamespace = strings.Trim(rawNamespace, "/")
	if rawNamespace == "" {
		return
	}
	namespace = strings.Split(rawNamespace, "/")
	return
}

// Empty is accepted and matches every type
func parseMetricType(raw string) (metricType metrics.MetricType, err error) {
	candidate := metrics.MetricType(strings.ToLower(raw))
	switch candidate {
	case "", metrics.Counter, metrics.Gauge, metrics.Summary:
		metricType = candidate
	default:
		err = fmt.Errorf("unknown metric type %q", raw)
	}
	return
}

// Sends converted metrics, or a JSON error body when there are none
func respondMetrics(ctx context.Context, serverResponder http.ResponseWriter, found []metrics.Metric) {
	if len(found) == 0 {
		jResp(ctx, serverResponder, Jerror{Msg: "Search returned no results"})
		return
	}

	converted := make([]metrics.JMetric, 0, len(found))
	for _, metric := range found {
		converted = append(converted, metric.Convert())
	}
	jResp(ctx, serverResponder, converted)
}

// Sample of each matching metric, no time range
func handleDiscovery(ctx context.Context, discover Discoverer, serverResponder http.ResponseWriter, clientRequest *http.Request) {
	req, _ := parseMetricRequest(clientRequest, global.DiscoveryPath, false)

	metricType, err := parseMetricType(clientRequest.FormValue("type"))
	if err != nil {
		serverResponder.WriteHeader(http.StatusBadRequest)
		return
	}

	found := discover(req.name, clientRequest.FormValue("description"), req.namespace, clientRequest.FormValue("unit"), metricType)
	respondMetrics(ctx, serverResponder, found)
}

// Every recorded value of the matching metrics inside the time range
func handleData(ctx context.Context, search DataSearcher, serverResponder http.ResponseWriter, clientRequest *http.Request) {
	req, err := parseMetricRequest(clientRequest, global.DataPath, true)
	if err != nil {
		serverResponder.WriteHeader(http.StatusBadRequest)
		return
	}

	respondMetrics(ctx, serverResponder, search(req.name, req.namespace, req.start, req.end))
}

// One value folded over the time range by the requested aggregation
func handleAggregation(ctx context.Context, aggregate AggSearcher, serverResponder http.ResponseWriter, clientRequest *http.Request) {
	req, err := parseMetricRequest(clientRequest, global.AggregationPath, true)
	if err != nil {
		serverResponder.WriteHeader(http.StatusBadRequest)
		return
	}

	result, err := aggregate(clientRequest.FormValue("aggregation"), req.name, req.namespace, req.start, req.end)
	if err != nil {
		jResp(ctx, serverResponder, Jerror{Msg: err.Error()})
		return
	}
	jResp(ctx, serverResponder, result.Convert())
}

// Currently connected consumers and their backlog
func handleConnections(ctx context.Context, list ConnectionLister, serverResponder http.ResponseWriter, clientRequest *http.Request) {
	connections := list()
	if connections == nil {
		connections = []ConnectionStatus{}
	}
	jResp(ctx, serverResponder, connections)
}
