package cli

import (
	"flag"
	"sonarfeed/internal/global"
)

// Registers verbosity flags and returns the requested level. The current level
// is the default so a level given before the command survives the command's own flags.
func SetGlobalArguments(fs *flag.FlagSet) (level *int) {
	level = &global.Verbosity
	fs.IntVar(level, "v", *level, "Increase detailed progress messages (Higher is more verbose) <0...5>")
	fs.IntVar(level, "verbosity", *level, "Increase detailed progress messages (Higher is more verbose) <0...5>")
	return
}

func SetCommon(fs *flag.FlagSet, configPath *string) {
	fs.StringVar(configPath, "c", "", "Path to the configuration file (searches $"+global.LegacyHomeEnvName+" then "+global.DefaultConfigPath+" when unset)")
	fs.StringVar(configPath, "config", "", "Path to the configuration file (searches $"+global.LegacyHomeEnvName+" then "+global.DefaultConfigPath+" when unset)")
}
