package distributor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sonarfeed/internal/global"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Picks the config file to load. An explicit path always wins, then a legacy
// NIMS home config, then the default path. found is false when the chosen
// default does not exist (daemon runs on defaults).
func ResolveConfigPath(explicit string) (path string, found bool) {
	if explicit != "" {
		path = explicit
		found = true
		return
	}

	nimsHome := os.Getenv(global.LegacyHomeEnvName)
	if nimsHome != "" {
		legacyPath := filepath.Join(nimsHome, global.LegacyConfigFile)
		_, err := os.Stat(legacyPath)
		if err == nil {
			path = legacyPath
			found = true
			return
		}
	}

	path = global.DefaultConfigPath
	_, err := os.Stat(path)
	found = err == nil
	return
}

// Loads YAML config from file
func LoadConfig(path string) (cfg FileConfig, err error) {
	configFile, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("config file '%s' does not exist: %w", path, err)
			return
		}
		err = fmt.Errorf("failed to read config file: %w", err)
		return
	}

	err = yaml.Unmarshal(configFile, &cfg)
	if err != nil {
		err = fmt.Errorf("invalid config syntax in '%s': %w", path, err)
		return
	}
	return
}

// Parses file config into daemon config
func (cfg FileConfig) NewDaemonConf() (config Config, err error) {
	// Network settings
	config.ListenIP = cfg.Network.Address
	config.ListenPort = cfg.Network.Port
	if config.ListenPort == 0 {
		config.ListenPort = cfg.TrackServerSocketPort
	}

	// Upstream settings
	config.TracksQueue = firstNonEmpty(cfg.Upstream.TracksQueue, cfg.TrackerSocketName)
	config.FramesQueue = firstNonEmpty(cfg.Upstream.FramesQueue, cfg.FrameBufferName)
	config.MetricsQueue = firstNonEmpty(cfg.Upstream.MetricsQueue, cfg.EchoMetrics.QueueName)
	config.SharedMemoryDir = cfg.Upstream.SharedMemoryDir
	config.FrameDecimation = cfg.Upstream.FrameDecimation
	config.PollInterval, err = parseDuration(cfg.Upstream.PollInterval)
	if err != nil {
		err = fmt.Errorf("failed to parse upstream poll interval: %w", err)
		return
	}

	// Delivery settings
	config.MaxHandshakeSize = cfg.Delivery.MaxHandshakeSize
	config.HandshakeTimeout, err = parseDuration(cfg.Delivery.HandshakeTimeout)
	if err != nil {
		err = fmt.Errorf("failed to parse handshake timeout: %w", err)
		return
	}
	if cfg.Delivery.DefaultHeartbeat == nil {
		config.DefaultHeartbeat = global.DefaultHeartbeat
	} else {
		config.DefaultHeartbeat, err = parseDuration(*cfg.Delivery.DefaultHeartbeat)
		if err != nil {
			err = fmt.Errorf("failed to parse default heartbeat: %w", err)
			return
		}
	}

	// Watchdog settings
	config.BacklogWarnPercent = cfg.Watchdog.BacklogWarnPercent
	config.WatchdogInterval, err = parseDuration(cfg.Watchdog.CheckInterval)
	if err != nil {
		err = fmt.Errorf("failed to parse watchdog check interval: %w", err)
		return
	}

	// Metric settings
	config.MetricQueryServerEnabled = cfg.Metrics.EnableQueryServer
	config.MetricQueryServerPort = cfg.Metrics.QueryServerPort
	config.MetricMaxAge, err = parseDuration(cfg.Metrics.MaxAge)
	if err != nil {
		err = fmt.Errorf("failed to parse metric max age time: %w", err)
		return
	}
	config.MetricCollectionInterval, err = parseDuration(cfg.Metrics.Interval)
	if err != nil {
		err = fmt.Errorf("failed to parse metric collection interval time: %w", err)
		return
	}
	return
}

// Sets defaults for any missing/invalid values
func (cfg *Config) setDefaults() {
	// Network
	if cfg.ListenIP == "" {
		cfg.ListenIP = global.DefaultServerAddr
	}
	if cfg.ListenPort == 0 {
		cfg.ListenPort = global.DefaultServerPort
	}

	// Upstream
	if cfg.TracksQueue == "" {
		cfg.TracksQueue = global.DefaultTracksQueue
	}
	if cfg.SharedMemoryDir == "" {
		cfg.SharedMemoryDir = global.SharedMemoryDir
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = global.DefaultPollInterval
	}
	if cfg.FrameDecimation == 0 {
		cfg.FrameDecimation = global.DefaultFrameDecimation
	}

	// Delivery
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = global.DefaultHandshakeTimeout
	}
	if cfg.MaxHandshakeSize <= 0 {
		cfg.MaxHandshakeSize = global.DefaultMaxHandshakeSize
	}
	if cfg.DefaultHeartbeat < 0 {
		cfg.DefaultHeartbeat = global.DefaultHeartbeat
	}

	// Watchdog
	if cfg.BacklogWarnPercent <= 0 || cfg.BacklogWarnPercent > 100 {
		cfg.BacklogWarnPercent = global.DefaultBacklogWarnPercent
	}
	if cfg.WatchdogInterval <= 0 {
		cfg.WatchdogInterval = global.DefaultWatchdogInterval
	}

	// Metrics
	if cfg.MetricMaxAge == 0 {
		cfg.MetricMaxAge = 1 * time.Hour
	}
	if cfg.MetricQueryServerPort == 0 {
		cfg.MetricQueryServerPort = global.HTTPListenPortServer
	}
	if cfg.MetricCollectionInterval == 0 {
		cfg.MetricCollectionInterval = 15 * time.Second
	}
}

// Empty means unset
func parseDuration(raw string) (duration time.Duration, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "0" {
		return
	}
	duration, err = time.ParseDuration(raw)
	return
}

func firstNonEmpty(values ...string) (value string) {
	for _, value = range values {
		if value != "" {
			return
		}
	}
	return
}
