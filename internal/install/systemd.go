package install

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sonarfeed/internal/global"
	"strings"
)

// Unit file contents with install paths injected
func renderUnit() (unitFile []byte, err error) {
	template, err := installationFiles.ReadFile("static-files/sonarfeed.service")
	if err != nil {
		err = fmt.Errorf("embedded unit file missing: %w", err)
		return
	}

	unitFile = []byte(strings.NewReplacer(
		"$executableFilePath", global.DefaultBinaryPath,
		"$configFilePath", global.DefaultConfigPath,
	).Replace(string(template)))
	return
}

// Runs systemctl, returning its trimmed combined output.
// Exit statuses listed in tolerated are not errors when the output mentions them.
func systemctl(tolerated []string, args ...string) (output string, err error) {
	raw, err := exec.Command("systemctl", args...).CombinedOutput()
	output = strings.TrimSpace(string(raw))
	if err == nil {
		return
	}
	for _, status := range tolerated {
		if strings.Contains(output, status) {
			err = nil
			return
		}
	}
	err = fmt.Errorf("systemctl %s: %w: %s", strings.Join(args, " "), err, output)
	return
}

func installService() (err error) {
	unit := filepath.Base(global.DefaultUnitPath)

	unitFile, err := renderUnit()
	if err != nil {
		return
	}
	err = os.WriteFile(global.DefaultUnitPath, unitFile, 0644)
	if err != nil {
		err = fmt.Errorf("failed to write unit file: %w", err)
		return
	}

	_, err = systemctl(nil, "daemon-reload")
	if err != nil {
		return
	}

	// is-enabled exits 1 for disabled units
	state, err := systemctl([]string{"disabled"}, "is-enabled", unit)
	if err != nil {
		return
	}
	if !strings.EqualFold(state, "enabled") {
		_, err = systemctl(nil, "enable", unit)
		if err != nil {
			return
		}
	}

	fmt.Printf("Installed systemd service %s\n", unit)
	fmt.Printf("  Review '%s', then run 'systemctl start %s'\n", global.DefaultConfigPath, unit)
	return
}

func uninstallService() (err error) {
	unit := filepath.Base(global.DefaultUnitPath)

	state, err := systemctl([]string{"disabled", "not-found"}, "is-enabled", unit)
	if err != nil {
		return
	}
	if strings.EqualFold(state, "enabled") {
		_, err = systemctl(nil, "disable", unit)
		if err != nil {
			return
		}
	}

	activity, err := systemctl([]string{"could not be found"}, "show", unit, "--property=ActiveState")
	if err != nil {
		return
	}
	if activity == "ActiveState=active" {
		_, err = systemctl(nil, "stop", unit)
		if err != nil {
			return
		}
	}

	err = removeIfPresent(global.DefaultUnitPath)
	if err != nil {
		return
	}
	_, err = systemctl(nil, "daemon-reload")
	if err != nil {
		return
	}

	fmt.Printf("Removed systemd service %s\n", unit)
	return
}
