package install

import (
	"fmt"
	"os"
	"path/filepath"
	"sonarfeed/internal/global"
)

const sysAutocompleteDir string = "/usr/share/bash-completion/completions"

func installBashAutocomplete() (err error) {
	script, err := installationFiles.ReadFile("static-files/autocomplete.sh")
	if err != nil {
		err = fmt.Errorf("embedded autocomplete script missing: %w", err)
		return
	}

	target, err := completionPath(sysAutocompleteDir, filepath.Base(global.DefaultBinaryPath))
	if err != nil {
		return
	}

	err = os.MkdirAll(filepath.Dir(target), 0755)
	if err != nil {
		err = fmt.Errorf("failed to create completion directory: %w", err)
		return
	}
	err = os.WriteFile(target, script, 0644)
	if err != nil {
		err = fmt.Errorf("failed to write completion script: %w", err)
		return
	}

	fmt.Printf("Installed bash completion at '%s'\n", target)
	if filepath.Dir(target) != sysAutocompleteDir {
		fmt.Printf("  ~/.bashrc must source ~/.bash_completion.d/* for it to load\n")
	}
	return
}

func uninstallBashAutocomplete() (err error) {
	target, err := completionPath(sysAutocompleteDir, filepath.Base(global.DefaultBinaryPath))
	if err != nil {
		return
	}
	err = removeIfPresent(target)
	if err != nil {
		return
	}
	fmt.Printf("Removed bash completion\n")
	return
}

// Completion script location under systemDir, or the user's completion dir
// when systemDir does not exist
func completionPath(systemDir, executableName string) (path string, err error) {
	info, statErr := os.Stat(systemDir)
	if statErr == nil && info.IsDir() {
		path = filepath.Join(systemDir, executableName)
		return
	}

	home, err := os.UserHomeDir()
	if err != nil {
		err = fmt.Errorf("no system completion dir and no home directory: %w", err)
		return
	}
	path = filepath.Join(home, ".bash_completion.d", executableName)
	return
}
