// Package subprocess spawns and supervises the bridge's child process.
//
// The child runs without a shell, with stdin, stdout and stderr connected to
// pipes, in its own process group so that it (and anything it spawns) can be
// signalled together and does not outlive the host. On Windows the group is a
// job object configured to kill the child when the host exits.
package subprocess
