//go:build unix && !linux

package subprocess

import (
	"os/exec"
	"syscall"
)

// setProcAttrs puts the child in its own process group.
func setProcAttrs(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
