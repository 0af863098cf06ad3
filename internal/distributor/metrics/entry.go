// Periodically reads hub and connection collectors into the metric registry
package metrics

import (
	"context"
	"runtime/debug"
	"sonarfeed/internal/global"
	"sonarfeed/internal/logctx"
	"sonarfeed/internal/metrics"
	"time"
)

// Retention is enforced once every this many collection intervals
const pruneEveryIntervals = 30

func New(collectors func() []Collector, interval time.Duration, maximumMetricAge time.Duration) (new *Gatherer) {
	new = &Gatherer{
		Registry:   metrics.New(),
		Collectors: collectors,
		Interval:   interval,
		Retention:  maximumMetricAge,
	}
	return
}

// Collects every interval and prunes old slices until ctx is done
func (gatherer *Gatherer) Run(ctx context.Context) {
	ctx = logctx.AppendCtxTag(ctx, global.NSMetric)

	collect := time.NewTicker(gatherer.Interval)
	defer collect.Stop()
	prune := time.NewTicker(gatherer.Interval * pruneEveryIntervals)
	defer prune.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-collect.C:
			slice := gatherer.Registry.NewTimeSlice(now, gatherer.Interval)
			gatherer.collectInto(ctx, slice)
		case now := <-prune.C:
			gatherer.Registry.Prune(now, gatherer.Retention)
		}
	}
}

// Reads every collector once into the slice. A panicking collector loses
// this interval only.
func (gatherer *Gatherer) collectInto(ctx context.Context, slice time.Time) {
	defer func() {
		if fatalError := recover(); fatalError != nil {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"panic in metric collector: %v\n%s", fatalError, debug.Stack())
		}
	}()

	var collection []metrics.Metric
	for _, collector := range gatherer.Collectors() {
		collection = append(collection, collector.CollectMetrics(gatherer.Interval)...)
	}
	gatherer.Registry.Add(slice, collection)
}
