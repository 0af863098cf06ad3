package distributor

import (
	"context"
	"net"
	"net/http"
	"sonarfeed/internal/distributor/hub"
	"sonarfeed/internal/distributor/metrics"
	"sonarfeed/internal/externalio/server"
	"sonarfeed/internal/upstream"
	"sync"
	"time"
)

// On-disk YAML layout. Unknown keys (rest of a NIMS config) are ignored.
type FileConfig struct {
	Network struct {
		Address string `yaml:"address"`
		Port    int    `yaml:"port"`
	} `yaml:"network"`
	Upstream struct {
		TracksQueue     string `yaml:"tracksQueue"`
		FramesQueue     string `yaml:"framesQueue"`
		MetricsQueue    string `yaml:"metricsQueue"`
		SharedMemoryDir string `yaml:"sharedMemoryDir"`
		PollInterval    string `yaml:"pollInterval"`
		FrameDecimation int    `yaml:"frameDecimation"`
	} `yaml:"upstream"`
	Delivery struct {
		HandshakeTimeout string  `yaml:"handshakeTimeout"`
		MaxHandshakeSize int     `yaml:"maxHandshakeSize"`
		DefaultHeartbeat *string `yaml:"defaultHeartbeat"` // "0" waits indefinitely
	} `yaml:"delivery"`
	Watchdog struct {
		BacklogWarnPercent float64 `yaml:"backlogWarnPercent"`
		CheckInterval      string  `yaml:"checkInterval"`
	} `yaml:"watchdog"`
	Metrics struct {
		Interval          string `yaml:"collectionInterval"`
		MaxAge            string `yaml:"maximumRetention,omitempty"`
		EnableQueryServer bool   `yaml:"enableHTTPQueryServer"`
		QueryServerPort   int    `yaml:"queryServerPort,omitempty"`
	} `yaml:"metrics"`

	// Legacy NIMS keys
	TrackerSocketName     string `yaml:"TRACKER_SOCKET_NAME,omitempty"`
	TrackServerSocketPort int    `yaml:"TRACKSERVER_SOCKET_PORT,omitempty"`
	FrameBufferName       string `yaml:"FRAMEBUFFER_NAME,omitempty"`
	EchoMetrics           struct {
		QueueName string `yaml:"queue_name,omitempty"`
	} `yaml:"ECHOMETRICS,omitempty"`
}

type Config struct {
	// Consumer listener
	ListenIP   string
	ListenPort int

	// Upstream pipeline
	TracksQueue     string
	FramesQueue     string
	MetricsQueue    string
	SharedMemoryDir string
	PollInterval    time.Duration
	FrameDecimation int

	// Delivery protocol
	HandshakeTimeout time.Duration
	MaxHandshakeSize int
	DefaultHeartbeat time.Duration // 0 waits indefinitely

	// Backlog watchdog
	BacklogWarnPercent float64
	WatchdogInterval   time.Duration

	// Metrics
	MetricQueryServerEnabled bool
	MetricQueryServerPort    int
	MetricCollectionInterval time.Duration
	MetricMaxAge             time.Duration
}

type Daemon struct {
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc

	wg           sync.WaitGroup
	shutdownOnce sync.Once

	// Set before Start to bypass the POSIX queues and the reuse-port listener
	Source   upstream.Source
	Listener net.Listener

	Hub              *hub.Hub
	metricsCollector *metrics.Gatherer
	watchdog         *Watchdog
	MetricServer     *http.Server

	MetricDataSearcher server.DataSearcher
}

// Warns when a single consumer backlog holds too much of free memory
type Watchdog struct {
	Interval    time.Duration
	WarnPercent float64
	backlogs    func() []Backlog
	freeMemory  func() uint64
	warned      map[uint64]bool
}

// Pending delivery state of one consumer
type Backlog struct {
	ID         uint64
	RemoteAddr string
	Depth      int
	Bytes      uint64
}
