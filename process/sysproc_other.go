//go:build !unix

package process

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
)

func setProcessGroup(*exec.Cmd) {}

// signalProcessGroup has no graceful variant off unix.
func signalProcessGroup(cmd *exec.Cmd) { killProcessGroup(cmd) }

func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}

func classifyLaunchError(err error) error {
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("executable not found: %w", err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("permission denied: %w", err)
	default:
		return err
	}
}
