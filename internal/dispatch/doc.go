// Package dispatch moves bridge events from background goroutines to a single consumer.
//
// Producers call Post; the consumer either ranges over Events or hands a Handler
// to Serve. Events from one producer are delivered in the order they were posted,
// and a Handler is never invoked concurrently with itself.
package dispatch
