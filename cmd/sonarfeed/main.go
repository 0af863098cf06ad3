package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"
	"sonarfeed/internal/cli"
	"sonarfeed/internal/global"
	"sonarfeed/internal/logctx"
)

func main() {
	os.Exit(run(os.Args))
}

// Dispatches to the requested command and returns the process exit code
func run(args []string) (exitCode int) {
	cliOpts := cli.DefineOptions()
	global.CmdOpts = cliOpts

	globalFlags := flag.NewFlagSet(args[0], flag.ExitOnError)
	logLevel := cli.SetGlobalArguments(globalFlags)
	globalFlags.Usage = func() {
		cli.PrintHelpMenu(globalFlags, cli.RootCLICommand, cliOpts)
	}
	globalFlags.Parse(args[1:])

	if globalFlags.NArg() == 0 {
		globalFlags.Usage()
		exitCode = 1
		return
	}
	command := globalFlags.Arg(0)
	commandArgs := globalFlags.Args()[1:]

	ctx, cancel := context.WithCancel(context.Background())
	logger := logctx.NewLogger("global", *logLevel, ctx.Done())
	ctx = logctx.WithLogger(ctx, logger)
	logctx.StartWatcher(logger, os.Stderr) // stdout carries feed output in listen mode
	defer func() {
		cancel()
		logger.Flush()
	}()

	var err error
	switch command {
	case "serve":
		err = cli.ServeMode(ctx, cliOpts, command, commandArgs)
	case "listen":
		err = cli.ListenMode(ctx, cliOpts, command, commandArgs)
	case "configure":
		err = cli.SetupMode(cliOpts, command, commandArgs)
	case "version":
		printVersion(*logLevel > global.VerbosityStandard)
	default:
		globalFlags.Usage()
		exitCode = 1
	}
	if err != nil {
		if !errors.Is(err, cli.ErrNoAction) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		exitCode = 1
	}
	return
}

func printVersion(detailed bool) {
	if !detailed {
		fmt.Println(global.ProgVersion)
		return
	}
	fmt.Printf("%s %s\n", global.ProgBaseName, global.ProgVersion)
	fmt.Printf("Built using %s(%s) for %s on %s\n", runtime.Version(), runtime.Compiler, runtime.GOOS, runtime.GOARCH)
}
