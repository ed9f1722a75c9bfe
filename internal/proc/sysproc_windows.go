//go:build windows

package proc

import "os/exec"

// No process group handling on Windows: detaching breaks child signal
// delivery, and there is no graceful signal to send.
func configureSysProcAttr(cmd *exec.Cmd) {}

func terminateProcess(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}

	return cmd.Process.Kill()
}

func killProcess(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}

	return cmd.Process.Kill()
}
