package cli

import (
	"bytes"
	"flag"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteHelpMenu(t *testing.T) {
	root := DefineOptions()

	fs := flag.NewFlagSet("listen", flag.ContinueOnError)
	var port int
	var pretty bool
	fs.IntVar(&port, "p", 8001, "Server port")
	fs.IntVar(&port, "port", 8001, "Server port")
	fs.BoolVar(&pretty, "pretty", false, "Indent printed JSON")

	tests := []struct {
		name       string
		command    string
		want       []string
		wantAbsent []string
	}{
		{
			name:    "root",
			command: RootCLICommand,
			want: []string{
				"Usage: sonarfeed [subcommand]\n",
				"Sonar Feed Distributor (sonarfeed)",
				"    listen",
				"- Consume a Feed",
				"NUL terminated JSON messages",
			},
		},
		{
			name:       "subcommand",
			command:    "listen",
			want:       []string{"Usage: sonarfeed listen\n", "  Description:\n", "Connects to a distribution server"},
			wantAbsent: []string{"Subcommands:", "NUL terminated"},
		},
		{
			name:    "unknown",
			command: "transmit",
			want:    []string{"Unknown command: transmit\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			writeHelpMenu(&out, "sonarfeed", fs, tt.command, root)

			for _, fragment := range tt.want {
				require.Contains(t, out.String(), fragment)
			}
			for _, fragment := range tt.wantAbsent {
				require.NotContains(t, out.String(), fragment)
			}
		})
	}
}

func TestWriteFlagOptions(t *testing.T) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	var address string
	var port int
	var quiet bool
	fs.StringVar(&address, "address", "::", "Listen address")
	fs.IntVar(&port, "p", 8001, "Listen port")
	fs.IntVar(&port, "port", 8001, "Listen port")
	fs.BoolVar(&quiet, "q", false, "Quiet")

	var out bytes.Buffer
	writeFlagOptions(&out, fs)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Equal(t, "  Options:", lines[0])
	require.Len(t, lines, 4)

	// Sorted by first spelling, short and long merged
	require.Contains(t, lines[1], "    --address")
	require.Contains(t, lines[1], "Listen address [default: ::]")
	require.Contains(t, lines[2], "-p, --port")
	require.Contains(t, lines[2], "[default: 8001]")
	require.Contains(t, lines[3], "-q")
	require.NotContains(t, lines[3], "default")

	// Usage text starts in one column
	column := strings.Index(lines[1], "Listen address")
	require.Equal(t, column, strings.Index(lines[2], "Listen port"))
	require.Equal(t, column, strings.Index(lines[3], "Quiet"))
}
