package beats

import (
	"fmt"
	"sonarfeed/internal/global"

	lumberjack "github.com/elastic/go-lumber/client/v2"
)

// Dials a Beats/Logstash endpoint for forwarding feed messages.
// An empty endpoint disables forwarding (nil module, nil error).
func NewOutput(endpoint string, sourceHost string) (module *OutModule, err error) {
	if endpoint == "" {
		return
	}

	conn, err := lumberjack.SyncDial(endpoint,
		lumberjack.CompressionLevel(global.BeatsCompressionLevel),
		lumberjack.Timeout(global.BeatsSendTimeout),
	)
	if err != nil {
		err = fmt.Errorf("failed to dial beats endpoint %s: %w", endpoint, err)
		return
	}

	module = &OutModule{sink: conn, sourceHost: sourceHost}
	return
}

// Closes the lumberjack connection. Safe on a nil module.
func (mod *OutModule) Close() (err error) {
	if mod == nil || mod.sink == nil {
		return
	}
	err = mod.sink.Close()
	mod.sink = nil
	return
}
