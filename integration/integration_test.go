//go:build integration

package integration

import (
	"errors"
	"os/exec"
	"testing"

	noderpc "github.com/wagiedev/noderpc-go"
)

// echoBackend writes every stdin line back to stdout.
const echoBackend = `
require('readline').createInterface({ input: process.stdin })
  .on('line', (line) => console.log(line));
`

// skipIfNodeNotInstalled skips the test if node cannot be found on PATH.
func skipIfNodeNotInstalled(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("node"); err != nil {
		t.Skip("node not installed")
	}
}

// requireLaunched fails the test unless err is nil, skipping when node is missing.
func requireLaunched(t *testing.T, err error) {
	t.Helper()

	if err == nil {
		return
	}

	if launchErr, ok := errors.AsType[*noderpc.LaunchError](err); ok && errors.Is(launchErr, exec.ErrNotFound) {
		t.Skip("node not installed")
	}

	t.Fatalf("Start failed: %v", err)
}
