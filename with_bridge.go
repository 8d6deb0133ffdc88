package noderpc

import (
	"context"
	"fmt"
)

// WithBridge manages bridge lifecycle with automatic cleanup.
//
// This helper creates a bridge, starts it, executes the callback function,
// and then disposes the bridge and waits for the child to be reaped.
//
// The callback receives a started Bridge. Its error, if any, is returned to
// the caller. Dispose and Wait failures are logged and do not override it.
//
// Example usage:
//
//	err := noderpc.WithBridge(ctx, func(b noderpc.Bridge) error {
//	    return b.Serve(ctx, noderpc.HandlerFuncs{
//	        OnMessage: func(line string) { fmt.Println(line) },
//	    })
//	},
//	    noderpc.WithCommand("node", "server.js"),
//	    noderpc.WithLogger(log),
//	)
func WithBridge(ctx context.Context, fn func(Bridge) error, opts ...Option) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	options := applyOptions(opts)

	log := options.Logger
	if log == nil {
		log = NopLogger()
	}

	b := New(opts...)
	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("failed to start bridge: %w", err)
	}

	defer func() {
		if err := b.Dispose(); err != nil {
			log.Warn("failed to dispose bridge", "error", err)
		}

		// The child exiting after Dispose is expected; only log anything else.
		if err := b.Wait(); err != nil {
			log.Debug("bridge child exited", "error", err)
		}
	}()

	return fn(b)
}
