package worker

import (
	"net"
	"sonarfeed/internal/queue/mailbox"
	"sonarfeed/pkg/protocol"
	"sync"
	"sync/atomic"
	"time"
)

type State int32

const (
	AwaitHandshake State = iota
	Streaming
	Closed
)

func (state State) String() string {
	switch state {
	case AwaitHandshake:
		return "await-handshake"
	case Streaming:
		return "streaming"
	case Closed:
		return "closed"
	}
	return "unknown"
}

type Config struct {
	HandshakeTimeout time.Duration // Deadline for the client options
	MaxHandshakeSize int           // Bytes read at most while waiting for options
	DefaultHeartbeat time.Duration // Used when the client asks for none, 0 waits indefinitely
}

// One consumer connection and its delivery backlog
type Worker struct {
	ID         uint64
	Namespace  []string
	RemoteAddr string
	Mailbox    *mailbox.Mailbox[[]byte]
	conn       net.Conn
	cfg        Config
	onClose    func(id uint64)

	state     atomic.Int32
	stopping  atomic.Bool
	options   atomic.Pointer[protocol.Options]
	heartbeat atomic.Int64 // Effective heartbeat in ns, set after handshake

	closeOnce sync.Once
	wg        sync.WaitGroup
	Metrics   MetricStorage
}
