//go:build unix

package subprocess

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// groupHandle addresses the child's process group. With Setpgid the group ID
// equals the child's PID, so no state is needed.
type groupHandle struct{}

func registerGroup(int) (groupHandle, error) {
	return groupHandle{}, nil
}

func (groupHandle) terminate(p *os.Process) error {
	return unix.Kill(-p.Pid, unix.SIGTERM)
}

func (groupHandle) kill(p *os.Process) error {
	if err := unix.Kill(-p.Pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		return err
	}

	return nil
}

func (groupHandle) release() {}
