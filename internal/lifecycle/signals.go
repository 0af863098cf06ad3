package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"sonarfeed/internal/global"
	"sonarfeed/internal/logctx"
	"syscall"
)

// Anything that can be told to stop on a termination signal
type Stopper interface {
	Shutdown()
}

// Blocks until a termination signal (then stops target) or until ctx ends.
// SIGHUP is acknowledged to systemd but changes nothing.
func SignalHandler(ctx context.Context, target Stopper) {
	signals := make(chan os.Signal, 4)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signals)

	handleSignals(ctx, signals, target)
}

func handleSignals(ctx context.Context, signals <-chan os.Signal, target Stopper) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-signals:
			logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Received signal: %v\n", sig)
			if sig != syscall.SIGHUP {
				stop(ctx, target)
				return
			}

			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"Configuration reload is not supported, restart the service to apply changes\n")
			warnNotify(ctx, acknowledgeReload(ctx))
		}
	}
}

func stop(ctx context.Context, target Stopper) {
	warnNotify(ctx, NotifyStopping(ctx))
	target.Shutdown()

	if logger := logctx.GetLogger(ctx); logger != nil {
		logger.Wake()
	}
}

func warnNotify(ctx context.Context, err error) {
	if err != nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Systemd notify failed: %v\n", err)
	}
}
