//go:build !linux

package subprocess

import "os/exec"

// startCommand starts cmd on the calling goroutine.
func startCommand(cmd *exec.Cmd) error {
	return cmd.Start()
}
