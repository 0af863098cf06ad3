package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"sonarfeed/internal/global"
	"strings"
	"text/tabwriter"
)

const (
	RootCLICommand  string = "root"
	helpMenuTrailer string = `
Consumers connect over TCP, send an optional JSON handshake
({"frequency": 10, "host": "name", "heartbeat": 60}) and then read
NUL terminated JSON messages. A lone NUL byte is a heartbeat.
`
)

// Prints usage, description, subcommands and options for command
func PrintHelpMenu(fs *flag.FlagSet, command string, rootCmd *global.CommandSet) {
	writeHelpMenu(os.Stdout, os.Args[0], fs, command, rootCmd)
}

func writeHelpMenu(out io.Writer, program string, fs *flag.FlagSet, command string, rootCmd *global.CommandSet) {
	cmdSet := rootCmd
	usage := []string{program}
	if command != "" && command != RootCLICommand {
		var found bool
		cmdSet, found = rootCmd.ChildCommands[command]
		if !found {
			fmt.Fprintf(out, "Unknown command: %s\n", command)
			return
		}
		usage = append(usage, cmdSet.CommandName)
	}

	switch len(cmdSet.ChildCommands) {
	case 0:
	case 1:
		for name := range cmdSet.ChildCommands {
			usage = append(usage, name)
		}
	default:
		usage = append(usage, "[subcommand]")
	}
	if cmdSet.UsageOption != "" {
		usage = append(usage, cmdSet.UsageOption)
	}
	fmt.Fprintf(out, "Usage: %s\n\n", strings.Join(usage, " "))

	if cmdSet == rootCmd {
		fmt.Fprintf(out, "%s\n%s\n\n", cmdSet.Description, cmdSet.FullDescription)
	} else if cmdSet.FullDescription != "" {
		fmt.Fprintf(out, "  Description:\n    %s\n\n", cmdSet.FullDescription)
	}

	if len(cmdSet.ChildCommands) > 0 {
		names := make([]string, 0, len(cmdSet.ChildCommands))
		for name := range cmdSet.ChildCommands {
			names = append(names, name)
		}
		slices.Sort(names)

		fmt.Fprintln(out, "  Subcommands:")
		table := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, name := range names {
			fmt.Fprintf(table, "    %s\t- %s\n", name, cmdSet.ChildCommands[name].Description)
		}
		table.Flush()
		fmt.Fprintln(out)
	}

	writeFlagOptions(out, fs)

	if cmdSet == rootCmd {
		fmt.Fprint(out, helpMenuTrailer)
	}
}

// One option line; short and long spellings sharing a usage text are merged
type flagOption struct {
	short    string
	long     []string
	usage    string
	defValue string
}

func (opt flagOption) names() (joined string) {
	var long []string
	for _, name := range opt.long {
		long = append(long, "--"+name)
	}
	joined = strings.Join(long, ", ")

	switch {
	case opt.short == "":
		// Aligns long-only flags under the long column
		joined = "    " + joined
	case joined == "":
		joined = "-" + opt.short
	default:
		joined = "-" + opt.short + ", " + joined
	}
	return
}

func (opt flagOption) sortKey() (key string) {
	key = opt.short
	if key == "" && len(opt.long) > 0 {
		key = opt.long[0]
	}
	key = strings.ToLower(key)
	return
}

func writeFlagOptions(out io.Writer, fs *flag.FlagSet) {
	var options []*flagOption
	byUsage := make(map[string]*flagOption)

	fs.VisitAll(func(arg *flag.Flag) {
		opt, seen := byUsage[arg.Usage]
		if !seen {
			opt = &flagOption{usage: arg.Usage, defValue: arg.DefValue}
			byUsage[arg.Usage] = opt
			options = append(options, opt)
		}
		if len(arg.Name) == 1 {
			opt.short = arg.Name
		} else {
			opt.long = append(opt.long, arg.Name)
		}
	})

	slices.SortFunc(options, func(a, b *flagOption) int {
		return strings.Compare(a.sortKey(), b.sortKey())
	})

	fmt.Fprintln(out, "  Options:")
	table := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, opt := range options {
		desc := opt.usage
		switch opt.defValue {
		case "", "false", "0":
		default:
			desc += " [default: " + opt.defValue + "]"
		}
		fmt.Fprintf(table, "  %s\t%s\n", opt.names(), desc)
	}
	table.Flush()
}
