package daemon

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/pkg/errors"
)

// Spawn re-executes the current binary with the hidden run command,
// detached from the controlling terminal. Used by `focusguard start`
// so the poll loop survives the CLI process.
func Spawn(configPath string) error {
	executable, err := os.Executable()
	if err != nil {
		return errors.Wrap(err, "failed to resolve executable path")
	}

	args := []string{"run"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}

	cmd := exec.Command(executable, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true, // New session, detached from the terminal
	}
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "failed to spawn daemon process")
	}
	return nil
}
