package logctx

import (
	"strings"
	"time"
)

// RFC3339 with the fractional part always nine digits wide
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Renders the event as "[time] [tag/path] [severity] message".
// Missing parts are left out and no newline is added.
func (event Event) Format() (text string) {
	var line strings.Builder

	field := func(value string, bracketed bool) {
		if value == "" {
			return
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		if bracketed {
			line.WriteByte('[')
			line.WriteString(value)
			line.WriteByte(']')
			return
		}
		line.WriteString(value)
	}

	if !event.Timestamp.IsZero() {
		field(formatTimestamp(event.Timestamp), true)
	}
	field(strings.Join(event.Tags, "/"), true)
	field(event.Severity, true)
	field(event.Message, false)

	text = line.String()
	return
}

func formatTimestamp(timestamp time.Time) (formatted string) {
	formatted = timestamp.Format(timestampLayout)
	return
}
