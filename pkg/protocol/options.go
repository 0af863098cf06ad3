package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Handshake sent once by a consumer right after connecting (no delimiter).
// All keys are optional.
type Options struct {
	Frequency *float64 `json:"frequency,omitempty"` // Advisory send rate in Hz, unused by the server
	Host      *string  `json:"host,omitempty"`      // Informational
	Heartbeat *float64 `json:"heartbeat,omitempty"` // Seconds between heartbeats when idle
}

// Builds handshake options, zero values are omitted
func NewOptions(frequency float64, host string, heartbeat time.Duration) (opts Options) {
	if frequency > 0 {
		opts.Frequency = &frequency
	}
	if host != "" {
		opts.Host = &host
	}
	if heartbeat > 0 {
		seconds := heartbeat.Seconds()
		opts.Heartbeat = &seconds
	}
	return
}

// Serializes options for the wire
func (opts Options) Encode() (raw []byte, err error) {
	raw, err = json.Marshal(opts)
	if err != nil {
		err = fmt.Errorf("failed to encode handshake: %w", err)
	}
	return
}

// Parses a handshake. Trailing delimiters and whitespace are ignored.
// Anything other than a JSON object yields an ErrHandshake wrapped error.
func ParseOptions(raw []byte) (opts Options, err error) {
	trimmed := bytes.TrimSpace(bytes.TrimRight(raw, string([]byte{Delimiter})))
	if len(trimmed) == 0 {
		err = fmt.Errorf("%w: empty message", ErrHandshake)
		return
	}
	if trimmed[0] != '{' {
		err = fmt.Errorf("%w: expected JSON object", ErrHandshake)
		return
	}

	err = json.Unmarshal(trimmed, &opts)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrHandshake, err)
		opts = Options{}
		return
	}
	return
}

// Heartbeat requested by the client, or fallback when absent or not positive
func (opts Options) HeartbeatInterval(fallback time.Duration) (interval time.Duration) {
	interval = fallback
	if opts.Heartbeat == nil {
		return
	}

	seconds := *opts.Heartbeat
	if seconds <= 0 || math.IsNaN(seconds) {
		return
	}
	if seconds >= maxHeartbeat.Seconds() {
		interval = maxHeartbeat
		return
	}
	interval = time.Duration(seconds * float64(time.Second))
	if interval <= 0 {
		interval = fallback
	}
	return
}

// Host option or empty
func (opts Options) HostName() (host string) {
	if opts.Host != nil {
		host = *opts.Host
	}
	return
}

// Reports where a buffered handshake ends: at the first delimiter, or at the
// end of the buffer once it holds a complete JSON value.
func HandshakeEnd(buf []byte) (end int, complete bool) {
	idx := bytes.IndexByte(buf, Delimiter)
	if idx >= 0 {
		end = idx
		complete = true
		return
	}

	trimmed := bytes.TrimSpace(buf)
	if len(trimmed) > 0 && json.Valid(trimmed) {
		end = len(buf)
		complete = true
	}
	return
}
