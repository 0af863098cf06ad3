package install

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sonarfeed/internal/global"
)

// Moves the running executable to the install path unless it already runs from there
func installBinary() (err error) {
	current, err := os.Executable()
	if err != nil {
		err = fmt.Errorf("failed to locate running executable: %w", err)
		return
	}
	if current == global.DefaultBinaryPath {
		return
	}

	err = os.Rename(current, global.DefaultBinaryPath)
	if err != nil {
		err = fmt.Errorf("failed to move %s to %s: %w", current, global.DefaultBinaryPath, err)
		return
	}
	fmt.Printf("Installed binary at '%s'\n", global.DefaultBinaryPath)
	return
}

func uninstallBinary() (err error) {
	err = removeIfPresent(global.DefaultBinaryPath)
	if err != nil {
		return
	}
	fmt.Printf("Removed binary '%s'\n", global.DefaultBinaryPath)
	return
}

// Removes path, a missing file is not an error
func removeIfPresent(path string) (err error) {
	err = os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		err = nil
	}
	if err != nil {
		err = fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return
}
