// Package bridge composes a supervised child process, its line channel, the
// transcript and the event dispatcher into a single RPC bridge.
//
// A Bridge owns two background goroutines for its lifetime: one reads the
// child's stdout and turns framed lines into events, the other copies stderr
// into the transcript. Events reach the consumer through a dispatch.Dispatcher,
// never concurrently and in the order they were read.
//
// The lifecycle is one-way: a Bridge is started at most once and, once
// disposed, never becomes active again.
package bridge
