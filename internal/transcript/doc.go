// Package transcript records every line exchanged with the child process.
//
// A Logger is the only object written by more than one goroutine in a bridge:
// the stdout reader, the stderr reader and any sender append to it concurrently.
// Appends are serialized so each entry reaches the sink as one complete line.
package transcript
