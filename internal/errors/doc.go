// Package errors defines error types for the node RPC bridge.
//
// This package provides structured error types that describe the different
// failure scenarios of a supervised child process. All error types support
// error unwrapping and can be checked using errors.Is, errors.As, and errors.AsType.
package errors
