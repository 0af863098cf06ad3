package hub

import (
	"context"
	"net"
	"sonarfeed/internal/distributor/worker"
	"sonarfeed/internal/upstream"
	"sync"
	"sync/atomic"
	"time"
)

type Config struct {
	Worker          worker.Config
	PollInterval    time.Duration // Upstream receive timeout per poll
	FrameDecimation int           // Keep every Nth sample row of frames, below 2 disables
}

// Fans upstream records out to every connected consumer
type Hub struct {
	Namespace []string
	listener  net.Listener
	source    upstream.Source
	fetcher   upstream.FrameFetcher
	cfg       Config

	mu      sync.Mutex
	workers map[uint64]*worker.Worker
	nextID  uint64
	closed  bool

	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	shutdownOnce sync.Once
	Metrics      MetricStorage
}

type MetricStorage struct {
	Accepted       atomic.Uint64 // Connections accepted in the interval
	AcceptErrors   atomic.Uint64 // Failed accepts in the interval
	Disconnected   atomic.Uint64 // Workers removed in the interval
	Received       atomic.Uint64 // Upstream messages received in the interval
	DecodeErrors   atomic.Uint64 // Upstream messages dropped as undecodable
	UpstreamErrors atomic.Uint64 // Failed upstream reads
	Broadcasts     atomic.Uint64 // Messages fanned out in the interval
	Deliveries     atomic.Uint64 // Mailbox pushes in the interval
	EncodedBytes   atomic.Uint64 // Bytes of encoded messages in the interval
	SumConvertNs   atomic.Uint64 // Time spent decoding and encoding
	MaxConvertNs   atomic.Uint64 // Longest single conversion
}
