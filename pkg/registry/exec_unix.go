//go:build !windows

package registry

import (
	"os/exec"
	"syscall"
)

// shellCommand runs command through the shell in its own session, so it
// outlives padnote.
func shellCommand(command string) *exec.Cmd {
	cmd := exec.Command("/bin/sh", "-c", command)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}
	return cmd
}
