package client

import (
	"context"
	"errors"
	"net"
	"sonarfeed/pkg/protocol"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrReadTimeout = errors.New("client: no data before idle timeout")
	ErrRead        = errors.New("client: read failed")
	ErrEmptyRead   = errors.New("client: connection closed by server")
)

// Opens the transport to the server
type Dialer func(ctx context.Context, address string) (conn net.Conn, err error)

// Receives every decoded message (TracksMessage, FrameMessage or MetricsMessage)
type Handler func(ctx context.Context, msg any) (err error)

type Config struct {
	Address     string           // host:port of the distributor
	Options     protocol.Options // Sent as the handshake on every connect
	IdleTimeout time.Duration    // Reconnect when nothing (not even a heartbeat) arrives for this long
	RetryMin    time.Duration    // First reconnect delay, doubles up to IdleTimeout while connections end early
	MaxSegment  int              // Largest accepted message, 0 for unlimited
	Dialer      Dialer
}

// Consumer side of the feed, survives server restarts and dead peers
type Client struct {
	cfg      Config
	handler  Handler
	splitter *protocol.Splitter

	mu   sync.Mutex
	conn net.Conn

	Metrics MetricStorage
}

type MetricStorage struct {
	Dials        atomic.Uint64 // Transport open attempts
	Connects     atomic.Uint64 // Successful connects with handshake sent
	Reconnects   atomic.Uint64 // Connections torn down after a read failure
	Messages     atomic.Uint64 // Decoded messages handed to the handler
	Heartbeats   atomic.Uint64 // Lone delimiters received
	DecodeErrors atomic.Uint64 // Segments dropped as undecodable
	BytesRead    atomic.Uint64
}
