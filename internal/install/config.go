package install

import (
	"fmt"
	"os"
	"path/filepath"
	"sonarfeed/internal/distributor"
	"sonarfeed/internal/global"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Writes the template config. An existing file is kept unless the operator
// confirms the overwrite on a terminal.
func installConfig() (err error) {
	path := global.DefaultConfigPath

	_, statErr := os.Stat(path)
	if statErr == nil {
		overwrite := term.IsTerminal(int(os.Stdout.Fd())) &&
			askYes(os.Stdin, os.Stdout, fmt.Sprintf("'%s' exists, overwrite it? (yes/no): ", path))
		if !overwrite {
			fmt.Printf("Keeping existing configuration '%s'\n", path)
			return
		}
	}

	err = os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		err = fmt.Errorf("failed to create configuration directory: %w", err)
		return
	}
	err = CreateServerTemplateConfig(path)
	if err != nil {
		return
	}

	fmt.Printf("Wrote template configuration to '%s'\n", path)
	return
}

func uninstallConfig() (err error) {
	err = removeIfPresent(global.DefaultConfigPath)
	if err != nil {
		return
	}
	fmt.Printf("Removed configuration '%s'\n", global.DefaultConfigPath)
	return
}

// Template with every structured key set to its default
func TemplateConfig() (newCfg distributor.FileConfig) {
	newCfg.Network.Address = global.DefaultServerAddr
	newCfg.Network.Port = global.DefaultServerPort

	newCfg.Upstream.TracksQueue = global.DefaultTracksQueue
	newCfg.Upstream.SharedMemoryDir = global.SharedMemoryDir
	newCfg.Upstream.PollInterval = global.DefaultPollInterval.String()
	newCfg.Upstream.FrameDecimation = global.DefaultFrameDecimation

	heartbeat := global.DefaultHeartbeat.String()
	newCfg.Delivery.HandshakeTimeout = global.DefaultHandshakeTimeout.String()
	newCfg.Delivery.MaxHandshakeSize = global.DefaultMaxHandshakeSize
	newCfg.Delivery.DefaultHeartbeat = &heartbeat

	newCfg.Watchdog.BacklogWarnPercent = global.DefaultBacklogWarnPercent
	newCfg.Watchdog.CheckInterval = global.DefaultWatchdogInterval.String()

	newCfg.Metrics.Interval = "5s"
	newCfg.Metrics.MaxAge = "72h"
	newCfg.Metrics.EnableQueryServer = true
	newCfg.Metrics.QueryServerPort = global.HTTPListenPortServer
	return
}

// Writes the default YAML config to path
func CreateServerTemplateConfig(path string) (err error) {
	if path == "" {
		err = fmt.Errorf("no template path given, use --config/-c")
		return
	}

	encoded, err := yaml.Marshal(TemplateConfig())
	if err != nil {
		err = fmt.Errorf("failed to encode template config: %w", err)
		return
	}
	err = os.WriteFile(path, encoded, 0644)
	if err != nil {
		err = fmt.Errorf("failed to write template config: %w", err)
	}
	return
}
