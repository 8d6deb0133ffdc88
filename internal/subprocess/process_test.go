package subprocess

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wagiedev/noderpc-go/internal/errors"
)

// childModeEnv selects the behaviour of the test binary when it is re-executed
// as a child process.
const childModeEnv = "NODERPC_SUBPROCESS_CHILD"

func TestMain(m *testing.M) {
	switch os.Getenv(childModeEnv) {
	case "":
		os.Exit(m.Run())
	case "echo":
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			fmt.Println("echo:" + scanner.Text())
		}

		fmt.Fprintln(os.Stderr, "stdin closed")
		os.Exit(0)
	case "env":
		fmt.Println(os.Getenv("NODERPC_TEST_VALUE"))
		os.Exit(0)
	case "exit3":
		os.Exit(3)
	case "stubborn":
		signal.Ignore(syscall.SIGTERM)
		fmt.Println("ready")
		time.Sleep(time.Hour)
	case "hang":
		// Ignore stdin EOF and keep running until killed.
		_, _ = io.Copy(io.Discard, os.Stdin)
		time.Sleep(time.Hour)
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func spawnChild(t *testing.T, mode string, extraEnv map[string]string) *Process {
	t.Helper()

	env := map[string]string{childModeEnv: mode}
	for k, v := range extraEnv {
		env[k] = v
	}

	exe, err := os.Executable()
	require.NoError(t, err)

	p, err := Spawn(&Config{
		Path:   exe,
		Args:   []string{"-test.run=^$"},
		Env:    env,
		Logger: testLogger(),
	})
	require.NoError(t, err)

	return p
}

// drainAndWait reads both pipes to EOF and reaps the child.
func drainAndWait(p *Process) ([]string, error) {
	errDone := make(chan struct{})

	go func() {
		_, _ = io.Copy(io.Discard, p.Stderr)
		close(errDone)
	}()

	var lines []string

	scanner := bufio.NewScanner(p.Stdout)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	<-errDone

	return lines, p.Wait()
}

func TestSpawn_EchoRoundTrip(t *testing.T) {
	p := spawnChild(t, "echo", nil)
	require.Positive(t, p.Pid())
	require.Equal(t, -1, p.ExitCode())

	_, err := io.WriteString(p.Stdin, "[1]\nhello\n")
	require.NoError(t, err)
	require.NoError(t, p.Stdin.Close())

	lines, err := drainAndWait(p)
	require.NoError(t, err)
	require.Equal(t, []string{"echo:[1]", "echo:hello"}, lines)
	require.Equal(t, 0, p.ExitCode())

	select {
	case <-p.Exited():
	default:
		t.Fatal("Exited not closed after Wait")
	}

	// Wait is idempotent.
	require.NoError(t, p.Wait())
}

func TestSpawn_PassesEnvironment(t *testing.T) {
	p := spawnChild(t, "env", map[string]string{"NODERPC_TEST_VALUE": "from-config"})
	require.NoError(t, p.Stdin.Close())

	lines, err := drainAndWait(p)
	require.NoError(t, err)
	require.Equal(t, []string{"from-config"}, lines)
}

func TestSpawn_ExitCode(t *testing.T) {
	p := spawnChild(t, "exit3", nil)

	_, err := drainAndWait(p)
	require.Error(t, err)

	exitErr, ok := stderrors.AsType[*exec.ExitError](err)
	require.True(t, ok)
	require.Equal(t, 3, exitErr.ExitCode())
	require.Equal(t, 3, p.ExitCode())
}

func TestSpawn_MissingExecutable(t *testing.T) {
	_, err := Spawn(&Config{Path: "/nonexistent/path/to/node"})
	require.Error(t, err)

	launchErr, ok := stderrors.AsType[*errors.LaunchError](err)
	require.True(t, ok)
	require.Equal(t, "/nonexistent/path/to/node", launchErr.Path)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestSpawn_NotExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Test requires Unix permission semantics")
	}

	path := t.TempDir() + "/not-executable"
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o600))

	_, err := Spawn(&Config{Path: path})

	_, ok := stderrors.AsType[*errors.LaunchError](err)
	require.True(t, ok, "expected LaunchError, got %v", err)
	require.ErrorContains(t, err, "start process")
}

func TestResolve(t *testing.T) {
	_, err := Resolve("")
	require.ErrorIs(t, err, errors.ErrNoCommand)

	_, err = Resolve("definitely-not-a-real-binary-noderpc")
	require.ErrorIs(t, err, exec.ErrNotFound)

	exe, err := os.Executable()
	require.NoError(t, err)

	resolved, err := Resolve(exe)
	require.NoError(t, err)
	require.Equal(t, exe, resolved)
}

func TestTerminate_StopsRunningChild(t *testing.T) {
	p := spawnChild(t, "hang", nil)
	require.NoError(t, p.Stdin.Close())

	waitDone := make(chan error, 1)

	go func() {
		_, err := drainAndWait(p)
		waitDone <- err
	}()

	start := time.Now()

	require.NoError(t, p.Terminate(200*time.Millisecond))

	select {
	case err := <-waitDone:
		require.Error(t, err, "killed child should report a non-zero exit")
	case <-time.After(10 * time.Second):
		t.Fatal("child did not exit after Terminate")
	}

	require.Less(t, time.Since(start), 10*time.Second)

	// Terminating an exited child is a no-op.
	require.NoError(t, p.Terminate(time.Millisecond))
}

func TestBuildEnvironment_OverridesWin(t *testing.T) {
	t.Setenv("NODERPC_OVERRIDE", "host")

	env := buildEnvironment(map[string]string{"NODERPC_OVERRIDE": "child", "A": "1"})

	last := ""

	for _, kv := range env {
		if strings.HasPrefix(kv, "NODERPC_OVERRIDE=") {
			last = kv
		}
	}

	require.Equal(t, "NODERPC_OVERRIDE=child", last)
	require.Contains(t, env, "A=1")
}

func TestTerminate_EscalatesToKill(t *testing.T) {
	p := spawnChild(t, "stubborn", nil)

	// Wait until the child has installed its signal handler.
	stdout := bufio.NewScanner(p.Stdout)
	require.True(t, stdout.Scan())
	require.Equal(t, "ready", stdout.Text())

	waitDone := make(chan error, 1)

	go func() {
		_, _ = io.Copy(io.Discard, p.Stdout)
		_, err := drainAndWait(p)
		waitDone <- err
	}()

	require.NoError(t, p.Terminate(100*time.Millisecond))

	select {
	case err := <-waitDone:
		require.Error(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("child survived SIGKILL escalation")
	}
}
