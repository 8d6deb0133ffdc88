package subprocess

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/wagiedev/noderpc-go/internal/errors"
)

// Resolve locates the executable for path.
//
// Paths containing a separator are used as given and must exist. Bare names are
// searched for in PATH. Failures are reported as *errors.LaunchError so they
// surface the same way as a failed start.
func Resolve(path string) (string, error) {
	if path == "" {
		return "", &errors.LaunchError{Path: path, Err: errors.ErrNoCommand}
	}

	if strings.ContainsRune(path, filepath.Separator) || strings.ContainsRune(path, '/') {
		if _, err := os.Stat(path); err != nil {
			return "", &errors.LaunchError{Path: path, Err: err}
		}

		return path, nil
	}

	found, err := exec.LookPath(path)
	if err != nil {
		return "", &errors.LaunchError{Path: path, Err: err}
	}

	return found, nil
}
