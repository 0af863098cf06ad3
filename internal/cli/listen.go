package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sonarfeed/internal/client"
	"sonarfeed/internal/externalio/beats"
	"sonarfeed/internal/externalio/stdout"
	"sonarfeed/internal/global"
	"sonarfeed/internal/logctx"
	"sonarfeed/pkg/protocol"
	"strconv"
	"syscall"
	"time"
)

// Consumes a feed until interrupted. Only a failing output ends it early.
func ListenMode(ctx context.Context, cliOpts *global.CommandSet, commandname string, args []string) (err error) {
	var host string
	var port int
	var frequency float64
	var heartbeat time.Duration
	var idleTimeout time.Duration
	var beatsAddr string
	var pretty bool
	var quiet bool

	commandFlags := flag.NewFlagSet(commandname, flag.ExitOnError)
	SetGlobalArguments(commandFlags)
	commandFlags.StringVar(&host, "H", global.DefaultClientHost, "Distribution server host")
	commandFlags.StringVar(&host, "host", global.DefaultClientHost, "Distribution server host")
	commandFlags.IntVar(&port, "p", global.DefaultServerPort, "Distribution server port")
	commandFlags.IntVar(&port, "port", global.DefaultServerPort, "Distribution server port")
	commandFlags.Float64Var(&frequency, "frequency", global.DefaultClientFrequency, "Advisory send rate in Hz sent in the handshake")
	commandFlags.DurationVar(&heartbeat, "heartbeat", global.DefaultHeartbeat, "Heartbeat interval requested from the server")
	commandFlags.DurationVar(&idleTimeout, "idle-timeout", global.DefaultIdleTimeout, "Reconnect when nothing arrives for this long")
	commandFlags.StringVar(&beatsAddr, "beats", "", "Forward messages to a beats (lumberjack) server at host:port")
	commandFlags.BoolVar(&pretty, "pretty", false, "Indent printed messages (default on for terminals)")
	commandFlags.BoolVar(&quiet, "q", false, "Do not print messages to stdout")
	commandFlags.BoolVar(&quiet, "quiet", false, "Do not print messages to stdout")

	commandFlags.Usage = func() {
		PrintHelpMenu(commandFlags, commandname, cliOpts)
	}
	commandFlags.Parse(args[0:])
	logctx.SetLogLevel(ctx, global.Verbosity)

	var prettySet *bool
	commandFlags.Visit(func(f *flag.Flag) {
		if f.Name == "pretty" {
			prettySet = &pretty
		}
	})

	ctx = logctx.AppendCtxTag(ctx, global.NSClient)

	hostname, hostErr := os.Hostname()
	if hostErr != nil {
		hostname = "unknown"
	}

	var printer *stdout.OutModule
	if !quiet {
		printer = stdout.NewOutput(os.Stdout, prettySet)
	}

	forwarder, err := beats.NewOutput(beatsAddr, hostname)
	if err != nil {
		return
	}
	if forwarder != nil {
		defer forwarder.Close()
	}

	handler := func(ctx context.Context, msg any) (err error) {
		if printer != nil {
			err = printer.Write(ctx, msg)
			if err != nil {
				return
			}
		}
		if forwarder != nil {
			_, err = forwarder.Write(ctx, msg)
			if err != nil {
				if errors.Is(err, protocol.ErrUnknownType) {
					err = nil
					return
				}
				err = fmt.Errorf("beats forwarding: %w", err)
				return
			}
		}
		return
	}

	feed := client.New(client.Config{
		Address:     net.JoinHostPort(host, strconv.Itoa(port)),
		Options:     protocol.NewOptions(frequency, hostname, heartbeat),
		IdleTimeout: idleTimeout,
	}, handler)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Listening to feed at %s:%d\n", host, port)
	err = feed.Run(runCtx)
	feed.Close()
	if err != nil {
		err = fmt.Errorf("feed stopped: %w", err)
		return
	}
	logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
		"Feed closed after %d messages (%d reconnects)\n", feed.Metrics.Messages.Load(), feed.Metrics.Reconnects.Load())
	return
}
