// Prints decoded feed messages, one JSON document per line (indented when pretty)
package stdout

import (
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

type OutModule struct {
	mu     sync.Mutex
	sink   io.Writer
	pretty bool
}

// Pretty output defaults to on when the destination is a terminal
func NewOutput(sink io.Writer, pretty *bool) (module *OutModule) {
	module = &OutModule{sink: sink}
	if pretty != nil {
		module.pretty = *pretty
		return
	}
	file, ok := sink.(*os.File)
	if ok {
		module.pretty = term.IsTerminal(int(file.Fd()))
	}
	return
}
