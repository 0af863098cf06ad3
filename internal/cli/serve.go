package cli

import (
	"context"
	"flag"
	"fmt"
	"sonarfeed/internal/distributor"
	"sonarfeed/internal/global"
	"sonarfeed/internal/logctx"
)

// Runs the distribution daemon until it is signalled to stop
func ServeMode(ctx context.Context, cliOpts *global.CommandSet, commandname string, args []string) (err error) {
	var configPath string
	var listenAddr string
	var listenPort int

	commandFlags := flag.NewFlagSet(commandname, flag.ExitOnError)
	SetGlobalArguments(commandFlags)
	SetCommon(commandFlags, &configPath)
	commandFlags.StringVar(&listenAddr, "address", "", "Override the consumer listen address")
	commandFlags.IntVar(&listenPort, "p", 0, "Override the consumer listen port")
	commandFlags.IntVar(&listenPort, "port", 0, "Override the consumer listen port")

	commandFlags.Usage = func() {
		PrintHelpMenu(commandFlags, commandname, cliOpts)
	}
	commandFlags.Parse(args[0:])
	logctx.SetLogLevel(ctx, global.Verbosity)

	var fileCfg distributor.FileConfig
	path, found := distributor.ResolveConfigPath(configPath)
	if found {
		fileCfg, err = distributor.LoadConfig(path)
		if err != nil {
			return
		}
		logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog, "Loaded configuration from '%s'\n", path)
	} else {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "No configuration file found, using defaults\n")
	}

	daemonConfig, err := fileCfg.NewDaemonConf()
	if err != nil {
		return
	}
	if listenAddr != "" {
		daemonConfig.ListenIP = listenAddr
	}
	if listenPort > 0 {
		daemonConfig.ListenPort = listenPort
	}

	daemon := distributor.NewDaemon(daemonConfig)
	err = daemon.Start(ctx)
	if err != nil {
		err = fmt.Errorf("failed to start distribution daemon: %w", err)
		return
	}

	daemon.Run()
	return
}
