package cli

import (
	"errors"
	"flag"
	"sonarfeed/internal/global"
	"sonarfeed/internal/install"
)

var ErrNoAction = errors.New("cli: no action given")

// Installation and config template actions. Exactly one action per call.
func SetupMode(cliOpts *global.CommandSet, commandname string, args []string) (err error) {
	var (
		doInstall   bool
		doUninstall bool
		doTemplate  bool
		configPath  string
	)

	commandFlags := flag.NewFlagSet(commandname, flag.ExitOnError)
	commandFlags.BoolVar(&doInstall, "install", false, "Install or upgrade the distribution daemon as a systemd service")
	commandFlags.BoolVar(&doUninstall, "uninstall", false, "Remove the distribution daemon, its service and configuration")
	commandFlags.BoolVar(&doTemplate, "server-config-template", false, "Write a default daemon configuration to the --config path")
	SetCommon(commandFlags, &configPath)
	commandFlags.Usage = func() {
		PrintHelpMenu(commandFlags, commandname, cliOpts)
	}
	commandFlags.Parse(args)

	switch {
	case doTemplate:
		err = install.CreateServerTemplateConfig(configPath)
	case doInstall:
		err = install.Run()
	case doUninstall:
		err = install.Remove()
	default:
		commandFlags.Usage()
		err = ErrNoAction
	}
	return
}
