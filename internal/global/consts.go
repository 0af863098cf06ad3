package global

import "time"

const (
	// Descriptive Names for available verbosity levels
	VerbosityNone int = iota
	VerbosityStandard
	VerbosityProgress
	VerbosityData
	VerbosityFullData
	VerbosityDebug

	// Descriptive names for available severity levels
	ErrorLog string = "Error"
	WarnLog  string = "Warn"
	InfoLog  string = "Info"
)

const (
	ProgVersion  string = "v1.2.0"
	ProgBaseName string = "sonarfeed"

	// Context keys
	LoggerKey  CtxKey = "logger"  // Event queue (mostly for variable log verbosity handling)
	LogTagsKey CtxKey = "logtags" // List of tags in order of broad->specific appended/popped at various parts of the program

	DefaultBinaryPath  string = "/usr/local/bin/sonarfeed"
	DefaultConfigPath  string = "/etc/sonarfeed.yaml"
	DefaultUnitPath    string = "/etc/systemd/system/sonarfeed.service"
	LegacyHomeEnvName  string = "NIMS_HOME"   // Directory holding a legacy config.yaml
	LegacyConfigFile   string = "config.yaml" // File name inside legacy home directory
	DefaultServerPort  int    = 8001
	DefaultServerAddr  string = "::"
	DefaultClientHost  string = "localhost"
	DefaultBeatsPort   int    = 5044
	SharedMemoryDir    string = "/dev/shm"
	DefaultTracksQueue string = "/nims_tracker_socket"

	// Upstream polling
	DefaultPollInterval    time.Duration = 100 * time.Millisecond
	DefaultFrameDecimation int           = 4 // Keep every 4th sample row of display frames

	// Delivery protocol
	DefaultHeartbeat        time.Duration = 60 * time.Second
	DefaultHandshakeTimeout time.Duration = 5 * time.Second
	DefaultMaxHandshakeSize int           = 4096
	DefaultClientFrequency  float64       = 10
	DefaultIdleTimeout      time.Duration = 120 * time.Second
	ClientReadBufferSize    int           = 4096
	ConsumerKeepAlive       time.Duration = 30 * time.Second

	// Beats forwarding
	BeatsCompressionLevel int           = 0
	BeatsSendTimeout      time.Duration = 3 * time.Second

	// Backlog watchdog
	DefaultBacklogWarnPercent float64       = 10 // Percent of free memory a single consumer backlog may hold before warning
	DefaultWatchdogInterval   time.Duration = 5 * time.Second

	// Timeout values
	ServeShutdownTimeout time.Duration = 20 * time.Second

	// Metric HTTP server
	HTTPListenPortServer int           = 10000 + DefaultServerPort // Default listen port
	HTTPListenAddr       string        = "localhost"               // Metric queries only exposed to local machine
	HTTPReadTimeout      time.Duration = 30 * time.Second
	HTTPWriteTimeout     time.Duration = 10 * time.Second
	HTTPIdleTimeout      time.Duration = 180 * time.Second
	DataPath             string        = "/data/"
	DiscoveryPath        string        = "/discover/"
	AggregationPath      string        = "/aggregate/"
	ConnectionsPath      string        = "/connections/"

	// Metric aggregation types
	MetricSum string = "sum"
	MetricMin string = "min"
	MetricMax string = "max"
	MetricAvg string = "avg"
	// Average without the top and bottom 10% of samples
	MetricTrimmedAvg string = "tavg"

	// Namespacing Name Components
	NSMetric    string = "Metrics"
	NSMetricSrv string = "Server"
	NSTest      string = "Test"
	NSCLI       string = "CLI"
	NSDist      string = "Distributor"
	NSHub       string = "Hub"
	NSAccept    string = "Accept"
	NSReader    string = "Reader"
	NSWorker    string = "Worker"
	NSWatchdog  string = "Watchdog"
	NSUpstream  string = "Upstream"
	NSClient    string = "Client"
	NSoBeats    string = "Beats"
	NSoStdout   string = "Stdout"
)
