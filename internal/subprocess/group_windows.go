package subprocess

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// setProcAttrs starts the child without a console window in a new process group.
func setProcAttrs(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: windows.CREATE_NEW_PROCESS_GROUP | windows.CREATE_NO_WINDOW,
	}
}

// groupHandle is a job object that kills its processes when the last handle
// to it is closed, including when the host exits.
type groupHandle struct {
	job windows.Handle
}

func registerGroup(pid int) (groupHandle, error) {
	job, err := windows.CreateJobObject(nil, nil)
	if err != nil {
		return groupHandle{}, fmt.Errorf("create job object: %w", err)
	}

	info := windows.JOBOBJECT_EXTENDED_LIMIT_INFORMATION{
		BasicLimitInformation: windows.JOBOBJECT_BASIC_LIMIT_INFORMATION{
			LimitFlags: windows.JOB_OBJECT_LIMIT_KILL_ON_JOB_CLOSE,
		},
	}

	if _, err := windows.SetInformationJobObject(
		job,
		windows.JobObjectExtendedLimitInformation,
		uintptr(unsafe.Pointer(&info)),
		uint32(unsafe.Sizeof(info)),
	); err != nil {
		_ = windows.CloseHandle(job)

		return groupHandle{}, fmt.Errorf("configure job object: %w", err)
	}

	proc, err := windows.OpenProcess(windows.PROCESS_SET_QUOTA|windows.PROCESS_TERMINATE, false, uint32(pid))
	if err != nil {
		_ = windows.CloseHandle(job)

		return groupHandle{}, fmt.Errorf("open process: %w", err)
	}
	defer windows.CloseHandle(proc)

	if err := windows.AssignProcessToJobObject(job, proc); err != nil {
		_ = windows.CloseHandle(job)

		return groupHandle{}, fmt.Errorf("assign process to job: %w", err)
	}

	return groupHandle{job: job}, nil
}

// terminate has no graceful equivalent of SIGTERM for a windowless child, so
// it ends the job outright.
func (g groupHandle) terminate(p *os.Process) error {
	return g.kill(p)
}

func (g groupHandle) kill(p *os.Process) error {
	if g.job != 0 {
		return windows.TerminateJobObject(g.job, 1)
	}

	return p.Kill()
}

func (g groupHandle) release() {
	if g.job != 0 {
		_ = windows.CloseHandle(g.job)
	}
}
