// Package linechan provides newline-framed access to a child process's stdio.
//
// A Channel bundles one Writer for the child's stdin and two Readers for its
// stdout and stderr. Writers flush after every line; Readers yield one line per
// call with the terminator (and any carriage return) stripped.
package linechan
