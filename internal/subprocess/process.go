package subprocess

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/exec"
	"slices"
	"sync"
	"time"

	"github.com/wagiedev/noderpc-go/internal/config"
	"github.com/wagiedev/noderpc-go/internal/errors"
)

// Config describes the child process to launch.
type Config struct {
	// Path is the executable. Bare names are looked up in PATH.
	Path string

	// Args are passed to the executable without shell interpretation.
	Args []string

	// Dir is the working directory. Empty inherits the host's.
	Dir string

	// Env adds to or overrides the host environment.
	Env map[string]string

	// Logger receives lifecycle diagnostics. Nil disables logging.
	Logger *slog.Logger
}

// Process is a running child with piped stdio.
type Process struct {
	log   *slog.Logger
	cmd   *exec.Cmd
	group groupHandle

	Stdin  io.WriteCloser
	Stdout io.ReadCloser
	Stderr io.ReadCloser

	waitOnce sync.Once
	waitErr  error
	exited   chan struct{}
}

// Spawn starts the child process described by cfg.
//
// Returns a *errors.LaunchError if the executable cannot be found, the pipes
// cannot be created, or the process fails to start.
func Spawn(cfg *Config) (*Process, error) {
	log := cfg.Logger
	if log == nil {
		log = config.NopLogger()
	}

	log = log.With("component", "subprocess")

	path, err := Resolve(cfg.Path)
	if err != nil {
		log.Error("Failed to resolve executable", "path", cfg.Path, "error", err)

		return nil, err
	}

	//nolint:gosec // G204: launching a configured executable is the purpose of this package
	cmd := exec.Command(path, cfg.Args...)
	cmd.Dir = cfg.Dir
	cmd.Env = buildEnvironment(cfg.Env)
	setProcAttrs(cmd)

	launchErr := func(stage string, err error) error {
		log.Error("Failed to launch child process", "stage", stage, "path", path, "error", err)

		return &errors.LaunchError{Path: path, Err: fmt.Errorf("%s: %w", stage, err)}
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, launchErr("stdin pipe", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, launchErr("stdout pipe", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, launchErr("stderr pipe", err)
	}

	if err := startCommand(cmd); err != nil {
		return nil, launchErr("start process", err)
	}

	p := &Process{
		log:    log.With("pid", cmd.Process.Pid),
		cmd:    cmd,
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
		exited: make(chan struct{}),
	}

	group, err := registerGroup(cmd.Process.Pid)
	if err != nil {
		// The child still runs; it only loses cleanup-on-host-exit.
		p.log.Warn("Failed to register child with process group", "error", err)
	}

	p.group = group
	p.log.Info("Child process started", "path", path, "args", cfg.Args)

	return p, nil
}

// Pid returns the child's process ID.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Wait reaps the child and returns its exit status.
//
// Wait must only be called once stdout and stderr have been read to EOF. It may
// be called any number of times; later calls return the first result.
func (p *Process) Wait() error {
	p.waitOnce.Do(func() {
		p.waitErr = p.cmd.Wait()
		p.group.release()
		close(p.exited)

		p.log.Info("Child process exited", "exit_code", p.cmd.ProcessState.ExitCode())
	})

	return p.waitErr
}

// Exited is closed once Wait has reaped the child.
func (p *Process) Exited() <-chan struct{} {
	return p.exited
}

// ExitCode returns the exit code after Wait, or -1 if the child has not been
// reaped or was killed by a signal.
func (p *Process) ExitCode() int {
	if p.cmd.ProcessState == nil {
		return -1
	}

	return p.cmd.ProcessState.ExitCode()
}

// Terminate asks the child's process group to exit, then kills it if it is
// still running after grace. It returns once the child has exited or been killed.
//
// Terminate relies on a concurrent Wait to observe the exit; it is safe to
// call on a child that has already exited.
func (p *Process) Terminate(grace time.Duration) error {
	select {
	case <-p.exited:
		return nil
	default:
	}

	p.log.Debug("Sending termination signal to child process group")

	if err := p.group.terminate(p.cmd.Process); err != nil {
		p.log.Debug("Termination signal failed", "error", err)
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-p.exited:
		return nil
	case <-timer.C:
	}

	p.log.Warn("Child process ignored termination signal, killing", "grace", grace)

	if err := p.group.kill(p.cmd.Process); err != nil {
		return fmt.Errorf("kill child process (pid %d): %w", p.Pid(), err)
	}

	return nil
}

// buildEnvironment returns the host environment with extra entries appended.
// Later entries win, so extra overrides inherited values.
func buildEnvironment(extra map[string]string) []string {
	env := os.Environ()

	for _, key := range slices.Sorted(maps.Keys(extra)) {
		env = append(env, key+"="+extra[key])
	}

	return env
}
