// Installs the distributor as a systemd service with its config, completion and binary
package install

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

//go:embed static-files/*
var installationFiles embed.FS

// One reversible part of the installation
type step struct {
	name      string
	install   func() error
	uninstall func() error
}

// Install order. Uninstall runs in reverse.
var steps = []step{
	{"binary", installBinary, uninstallBinary},
	{"bash autocomplete", installBashAutocomplete, uninstallBashAutocomplete},
	{"configuration", installConfig, uninstallConfig},
	{"systemd service", installService, uninstallService},
}

// Installs every step, stopping at the first failure. Safe to rerun.
func Run() (err error) {
	err = requireRoot("installation")
	if err != nil {
		return
	}

	for _, step := range steps {
		err = step.install()
		if err != nil {
			err = fmt.Errorf("failed installing %s: %w", step.name, err)
			return
		}
	}
	fmt.Printf("Installation completed successfully\n")
	return
}

// Removes every step after confirmation, continuing past failures
func Remove() (err error) {
	if !confirm(os.Stdin, os.Stdout, "Are you SURE you want to uninstall? (this will remove the configuration file) (yes/no): ") {
		fmt.Printf("Aborting uninstall\n")
		return
	}
	err = requireRoot("uninstall")
	if err != nil {
		return
	}

	var failures []error
	for i := len(steps) - 1; i >= 0; i-- {
		stepErr := steps[i].uninstall()
		if stepErr != nil {
			failures = append(failures, fmt.Errorf("failed removing %s: %w", steps[i].name, stepErr))
		}
	}
	err = errors.Join(failures...)
	return
}

func requireRoot(action string) (err error) {
	if os.Geteuid() != 0 {
		err = fmt.Errorf("%s must be run as root", action)
	}
	return
}

// Asks a yes/no question when attached to a terminal. Without a terminal the
// answer is yes.
func confirm(input io.Reader, output *os.File, question string) (yes bool) {
	if !term.IsTerminal(int(output.Fd())) {
		yes = true
		return
	}
	yes = askYes(input, output, question)
	return
}

func askYes(input io.Reader, output io.Writer, question string) (yes bool) {
	fmt.Fprint(output, question)
	answer, _ := bufio.NewReader(input).ReadString('\n')
	yes = strings.EqualFold(strings.TrimSpace(answer), "yes")
	return
}
