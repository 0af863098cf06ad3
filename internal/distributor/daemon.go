// Daemon that attaches to the sonar processing pipeline and serves its records to TCP consumers
package distributor

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"sonarfeed/internal/distributor/hub"
	"sonarfeed/internal/distributor/metrics"
	"sonarfeed/internal/distributor/worker"
	"sonarfeed/internal/externalio/server"
	"sonarfeed/internal/global"
	"sonarfeed/internal/lifecycle"
	"sonarfeed/internal/logctx"
	"sonarfeed/internal/network"
	"sonarfeed/internal/upstream"
	"strconv"
	"time"
)

// Create new distributor daemon instance
func NewDaemon(cfg Config) (new *Daemon) {
	ctx, cancel := context.WithCancel(context.Background())
	new = &Daemon{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}
	return
}

// Attaches upstream, starts accepting consumers and the supporting threads.
// Anything already started is torn down again on error.
func (daemon *Daemon) Start(globalCtx context.Context) (err error) {
	// New context for the daemon
	daemon.ctx, daemon.cancel = context.WithCancel(context.Background())
	daemon.ctx = logctx.WithLogger(daemon.ctx, logctx.GetLogger(globalCtx))

	// Top level tag for daemon logs
	daemon.ctx = logctx.AppendCtxTag(daemon.ctx, global.NSDist)

	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog, "Starting...\n")

	// Pre-startup
	daemon.cfg.setDefaults()

	global.PID = os.Getpid()

	// Upstream pipeline
	if daemon.Source == nil {
		daemon.Source, err = upstream.Open(daemon.ctx, upstream.Config{
			TracksQueue:  daemon.cfg.TracksQueue,
			FramesQueue:  daemon.cfg.FramesQueue,
			MetricsQueue: daemon.cfg.MetricsQueue,
			PID:          global.PID,
		})
		if err != nil {
			err = fmt.Errorf("failed attaching to upstream pipeline: %w", err)
			return
		}
	}

	// Consumer listener
	if daemon.Listener == nil {
		listenAddr := net.JoinHostPort(daemon.cfg.ListenIP, strconv.Itoa(daemon.cfg.ListenPort))
		daemon.Listener, err = network.ReuseTCPPort(listenAddr)
		if err != nil {
			err = fmt.Errorf("failed to listen for consumers: %w", err)
			daemon.Source.Close()
			return
		}
	}
	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog,
		"Serving consumers on %s\n", daemon.Listener.Addr().String())

	// Distribution hub
	daemon.Hub = hub.New([]string{global.NSDist}, daemon.Listener, daemon.Source,
		upstream.SharedMemory{Dir: daemon.cfg.SharedMemoryDir},
		hub.Config{
			Worker: worker.Config{
				HandshakeTimeout: daemon.cfg.HandshakeTimeout,
				MaxHandshakeSize: daemon.cfg.MaxHandshakeSize,
				DefaultHeartbeat: daemon.cfg.DefaultHeartbeat,
			},
			PollInterval:    daemon.cfg.PollInterval,
			FrameDecimation: daemon.cfg.FrameDecimation,
		})
	daemon.Hub.Start(daemon.ctx)

	// Metrics Collector
	daemon.metricsCollector = metrics.New(daemon.collectors,
		daemon.cfg.MetricCollectionInterval,
		daemon.cfg.MetricMaxAge)
	daemon.MetricDataSearcher = daemon.metricsCollector.Registry.Search
	daemon.goRun(daemon.metricsCollector.Run)
	daemon.goRun(daemon.reportStatus)

	// Backlog watchdog
	daemon.watchdog = NewWatchdog(daemon.cfg.WatchdogInterval, daemon.cfg.BacklogWarnPercent, daemon.backlogs)
	daemon.goRun(daemon.watchdog.Run)

	// Metric Server
	if daemon.cfg.MetricQueryServerEnabled {
		// Top level tag for metric server logs (copy so return doesn't strip ns tags)
		serverCtx := daemon.ctx
		serverCtx = logctx.AppendCtxTag(serverCtx, global.NSMetric)
		serverCtx = logctx.AppendCtxTag(serverCtx, global.NSMetricSrv)

		registry := daemon.metricsCollector.Registry
		daemon.MetricServer, err = server.SetupListener(serverCtx,
			daemon.cfg.MetricQueryServerPort,
			server.Queries{
				Search:      daemon.MetricDataSearcher,
				Discover:    registry.Discover,
				Aggregate:   registry.Aggregate,
				Connections: daemon.connections,
			})
		if err != nil {
			err = fmt.Errorf("failed setting up metric server: %w", err)
			daemon.Shutdown()
			return
		}
		daemon.wg.Add(1)
		go func() {
			defer daemon.wg.Done()
			server.Start(serverCtx, daemon.MetricServer)
		}()
	}

	// Start handling exit signals once everything can be shut down
	go lifecycle.SignalHandler(daemon.ctx, daemon)

	err = lifecycle.NotifyReady(daemon.ctx)
	if err != nil {
		logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
			"Systemd notify failed: %v\n", err)
		err = nil
	}

	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog, "Startup complete.\n")
	return
}

// Blocking daemon waiter
func (daemon *Daemon) Run() {
	<-daemon.ctx.Done()
}

// Stops accepting, disconnects every consumer and detaches from upstream (errors are printed to program log buffer)
func (daemon *Daemon) Shutdown() {
	daemon.shutdownOnce.Do(daemon.shutdown)
}

func (daemon *Daemon) shutdown() {
	ctx := logctx.ReplaceCtxTags(daemon.ctx, []string{global.NSDist})

	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog,
		"Daemon shutdown started...\n")

	// Stop metric server
	if daemon.MetricServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, global.HTTPWriteTimeout)
		err := daemon.MetricServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil && err != http.ErrServerClosed {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"metric HTTP server did not shutdown gracefully: %v\n", err)
		}
	}

	// Stop accepting and close every consumer
	if daemon.Hub != nil {
		daemon.Hub.Shutdown()
	} else if daemon.Listener != nil {
		daemon.Listener.Close()
	}

	// Detach from upstream (unlinks private queues)
	if daemon.Source != nil {
		err := daemon.Source.Close()
		if err != nil {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"failed to detach from upstream cleanly: %v\n", err)
		}
	}

	// Stop the background threads and the run loop
	daemon.cancel()

	// Wait for all workers to finish (with timeout)
	done := make(chan struct{})
	go func() {
		daemon.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog,
			"Daemon shutdown completed successfully\n")
	case <-time.After(global.ServeShutdownTimeout):
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"Timeout: distributor daemon did not shutdown within %v seconds\n",
			global.ServeShutdownTimeout.Seconds())
	}
}

func (daemon *Daemon) goRun(task func(ctx context.Context)) {
	workerCtx := daemon.ctx
	daemon.wg.Add(1)
	go func() {
		defer daemon.wg.Done()
		task(workerCtx)
	}()
}

// Hub plus every connected worker, read fresh each interval
func (daemon *Daemon) collectors() (list []metrics.Collector) {
	list = append(list, daemon.Hub)
	for _, consumer := range daemon.Hub.Snapshot() {
		list = append(list, consumer)
	}
	return
}

func (daemon *Daemon) backlogs() (list []Backlog) {
	for _, consumer := range daemon.Hub.Snapshot() {
		list = append(list, Backlog{
			ID:         consumer.ID,
			RemoteAddr: consumer.RemoteAddr,
			Depth:      consumer.Mailbox.Len(),
			Bytes:      consumer.Mailbox.Size(),
		})
	}
	return
}

func (daemon *Daemon) connections() (list []server.ConnectionStatus) {
	for _, consumer := range daemon.Hub.Snapshot() {
		status := server.ConnectionStatus{
			ID:           consumer.ID,
			RemoteAddr:   consumer.RemoteAddr,
			State:        consumer.State().String(),
			BacklogDepth: consumer.Mailbox.Len(),
			BacklogBytes: consumer.Mailbox.Size(),
		}
		if consumer.State() != worker.AwaitHandshake {
			opts := consumer.Options()
			status.Host = opts.HostName()
			status.Heartbeat = consumer.Heartbeat().String()
		}
		list = append(list, status)
	}
	return
}

// Publishes a one line summary to the service manager every collection interval
func (daemon *Daemon) reportStatus(ctx context.Context) {
	ticker := time.NewTicker(daemon.cfg.MetricCollectionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status := fmt.Sprintf("%d consumers connected", daemon.Hub.Count())
			broadcasts, found := daemon.metricsCollector.Registry.Latest("broadcasts", daemon.Hub.Namespace)
			if found {
				status += fmt.Sprintf(", %v messages in last %v", broadcasts.Value.Raw, broadcasts.Value.Interval)
			}
			err := lifecycle.NotifyStatus(ctx, status)
			if err != nil {
				logctx.LogEvent(ctx, global.VerbosityProgress, global.WarnLog,
					"Systemd notify failed: %v\n", err)
			}
		}
	}
}
