//go:build !unix && !windows

package subprocess

import (
	"os"
	"os/exec"
)

func setProcAttrs(*exec.Cmd) {}

// groupHandle signals only the child itself on platforms without process groups.
type groupHandle struct{}

func registerGroup(int) (groupHandle, error) {
	return groupHandle{}, nil
}

func (groupHandle) terminate(p *os.Process) error {
	return p.Signal(os.Interrupt)
}

func (groupHandle) kill(p *os.Process) error {
	return p.Kill()
}

func (groupHandle) release() {}
