// Delivery stream protocol: NUL framed JSON messages preceded by a client handshake
package protocol

import (
	"errors"
	"time"
)

const (
	Delimiter byte = 0x00 // Terminates every message. Sent alone it is a heartbeat.

	TypeTracks  string = "tracks"
	TypeFrame   string = "frame"
	TypeMetrics string = "metrics"

	maxHeartbeat time.Duration = 24 * time.Hour
)

var (
	ErrHandshake       = errors.New("protocol: invalid handshake")
	ErrSegmentTooLarge = errors.New("protocol: segment exceeds size limit")
	ErrUnknownType     = errors.New("protocol: unknown message type")
)
