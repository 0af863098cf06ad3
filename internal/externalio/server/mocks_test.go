package server

import (
	"sonarfeed/internal/metrics"
	"time"
)

// Query backends returning canned results
type stubQueries struct {
	metrics     []metrics.Metric
	aggregate   metrics.Metric
	aggErr      error
	connections []ConnectionStatus

	lastName      string
	lastNamespace []string
}

func (stub *stubQueries) search(name string, ns []string, start, end time.Time) []metrics.Metric {
	stub.lastName, stub.lastNamespace = name, ns
	return stub.metrics
}

func (stub *stubQueries) discover(name, desc string, ns []string, unit string, mt metrics.MetricType) []metrics.Metric {
	stub.lastName, stub.lastNamespace = name, ns
	return stub.metrics
}

func (stub *stubQueries) agg(aggType, name string, ns []string, start, end time.Time) (metrics.Metric, error) {
	stub.lastName, stub.lastNamespace = name, ns
	return stub.aggregate, stub.aggErr
}

func (stub *stubQueries) list() []ConnectionStatus {
	return stub.connections
}

func (stub *stubQueries) Queries() Queries {
	return Queries{
		Search:      stub.search,
		Discover:    stub.discover,
		Aggregate:   stub.agg,
		Connections: stub.list,
	}
}
