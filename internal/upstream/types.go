package upstream

import (
	"errors"
	"time"
)

// Which upstream queue a message arrived on
type Kind int

const (
	KindTrack         Kind = iota // Binary track record
	KindFrameEnvelope             // Binary descriptor of a frame in shared memory
	KindMetrics                   // Opaque echometrics payload
)

func (kind Kind) String() string {
	switch kind {
	case KindTrack:
		return "track"
	case KindFrameEnvelope:
		return "frame-envelope"
	case KindMetrics:
		return "metrics"
	}
	return "unknown"
}

// One raw upstream message
type Message struct {
	Kind Kind
	Data []byte
}

// Upstream channel read by the hub. Receive returns ok=false when nothing
// arrived within timeout, which is normal.
type Source interface {
	Receive(timeout time.Duration) (msg Message, ok bool, err error)
	Close() (err error)
}

// Copies a frame out of a named shared buffer
type FrameFetcher interface {
	Fetch(name string, length uint64) (frame []byte, err error)
}

// Queue names used to attach to the processing pipeline
type Config struct {
	TracksQueue  string // Tracker output queue, required
	FramesQueue  string // Frame buffer subscription queue, empty disables frames
	MetricsQueue string // Echometrics subscription queue, empty disables metrics
	PID          int    // Suffix for private subscription queues
}

var (
	ErrUnavailable = errors.New("upstream: channel unavailable")
	ErrClosed      = errors.New("upstream: source closed")
)

const (
	privateFramePrefix   string = "/sonarfeed_display_"
	privateMetricsPrefix string = "/sonarfeed_em_"
	subscribeConfirmSize int    = 1 // Frame buffer acknowledges a subscription with a single byte
)
