//go:build !windows

package proc

import (
	"os/exec"
	"syscall"
)

// Children run in their own process group so that codegen's and test
// --debug's grandchild browsers die with the immediate child.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func terminateProcess(cmd *exec.Cmd) error {
	return signalGroup(cmd, syscall.SIGTERM)
}

func killProcess(cmd *exec.Cmd) error {
	return signalGroup(cmd, syscall.SIGKILL)
}

func signalGroup(cmd *exec.Cmd, sig syscall.Signal) error {
	if cmd.Process == nil {
		return nil
	}

	if err := syscall.Kill(-cmd.Process.Pid, sig); err == nil {
		return nil
	}

	return cmd.Process.Signal(sig)
}
