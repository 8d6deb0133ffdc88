package subprocess

import (
	"os/exec"
	"runtime"
	"sync"
	"syscall"
)

// setProcAttrs puts the child in its own process group and has the kernel
// kill it if the host dies first.
//
// Pdeathsig is tied to the OS thread that forks the child, not to the host
// process, so children are always started by startCommand.
func setProcAttrs(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
}

// spawner runs start requests on one goroutine locked to its OS thread for the
// life of the host. The thread never exits, so Pdeathsig only fires when the
// host does.
var spawner struct {
	once     sync.Once
	requests chan func()
}

// startCommand starts cmd on the spawner thread.
func startCommand(cmd *exec.Cmd) error {
	spawner.once.Do(func() {
		spawner.requests = make(chan func())

		go func() {
			runtime.LockOSThread()

			for fn := range spawner.requests {
				fn()
			}
		}()
	})

	result := make(chan error, 1)
	spawner.requests <- func() { result <- cmd.Start() }

	return <-result
}
