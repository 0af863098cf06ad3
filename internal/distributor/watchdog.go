package distributor

import (
	"context"
	"sonarfeed/internal/global"
	"sonarfeed/internal/logctx"
	"time"

	"github.com/pbnjay/memory"
)

func NewWatchdog(interval time.Duration, warnPercent float64, backlogs func() []Backlog) (new *Watchdog) {
	new = &Watchdog{
		Interval:    interval,
		WarnPercent: warnPercent,
		backlogs:    backlogs,
		freeMemory:  memory.FreeMemory,
		warned:      make(map[uint64]bool),
	}
	return
}

// Periodically compares every consumer backlog against free system memory.
// Only logs, delivery is never throttled.
func (watchdog *Watchdog) Run(ctx context.Context) {
	ctx = logctx.AppendCtxTag(ctx, global.NSWatchdog)

	ticker := time.NewTicker(watchdog.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			watchdog.check(ctx)
		}
	}
}

// Logs one warning per consumer each time its backlog crosses the threshold
func (watchdog *Watchdog) check(ctx context.Context) (overLimit []uint64) {
	availMem := watchdog.freeMemory()
	if availMem == 0 {
		// Unknown on this platform
		return
	}
	limit := uint64(float64(availMem) * watchdog.WarnPercent / 100)

	seen := make(map[uint64]bool)
	for _, backlog := range watchdog.backlogs() {
		seen[backlog.ID] = true

		if backlog.Bytes < limit {
			if watchdog.warned[backlog.ID] {
				logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
					"Consumer %d (%s) backlog recovered: %d messages, %d bytes\n",
					backlog.ID, backlog.RemoteAddr, backlog.Depth, backlog.Bytes)
				delete(watchdog.warned, backlog.ID)
			}
			continue
		}

		overLimit = append(overLimit, backlog.ID)
		if watchdog.warned[backlog.ID] {
			continue
		}
		watchdog.warned[backlog.ID] = true
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"Consumer %d (%s) is not keeping up: %d messages (%d bytes) pending, %.1f%% of free memory\n",
			backlog.ID, backlog.RemoteAddr, backlog.Depth, backlog.Bytes,
			float64(backlog.Bytes)/float64(availMem)*100)
	}

	// Forget consumers that disconnected
	for id := range watchdog.warned {
		if !seen[id] {
			delete(watchdog.warned, id)
		}
	}
	return
}
