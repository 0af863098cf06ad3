package stdout

import (
	"context"
	"encoding/json"
	"fmt"
)

// Writes one message followed by a newline
func (mod *OutModule) Write(ctx context.Context, msg any) (err error) {
	var text []byte
	if mod.pretty {
		text, err = json.MarshalIndent(msg, "", "  ")
	} else {
		text, err = json.Marshal(msg)
	}
	if err != nil {
		err = fmt.Errorf("failed to format message: %w", err)
		return
	}
	text = append(text, '\n')

	mod.mu.Lock()
	defer mod.mu.Unlock()
	_, err = mod.sink.Write(text)
	if err != nil {
		err = fmt.Errorf("failed writing message: %w", err)
	}
	return
}
