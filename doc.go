// Package noderpc runs a long-lived child process and talks to it in
// newline-delimited messages over its standard input and output.
//
// A Bridge launches the child, records every exchanged line in a transcript
// and turns the child's output into three events, delivered one at a time to
// a single consumer:
//
//   - LaunchComplete, once the child's stdio is connected
//   - Message, for every stdout line whose first character is '['
//   - Crashed, if stdout ends before Dispose was called
//
// Lines that do not start with '[' are treated as noise: they appear in the
// transcript but produce no event. Standard error only feeds the transcript.
//
// # Basic Usage
//
//	b := noderpc.New(
//	    noderpc.WithCommand("node", "backend/bin/livereload.js", "rpc"),
//	    noderpc.WithLogger(slog.Default()),
//	    noderpc.WithTranscript(logFile),
//	)
//	if err := b.Start(ctx); err != nil {
//	    log.Fatal(err) // *noderpc.LaunchError
//	}
//	defer b.Dispose()
//
//	err := b.Serve(ctx, noderpc.HandlerFuncs{
//	    OnLaunchComplete: func() { _ = b.Send("hello", map[string]any{"version": 1}) },
//	    OnMessage:        func(line string) { handle(line) },
//	    OnCrash:          func() { log.Println("backend crashed") },
//	})
//
// Commands are sent as a JSON array [command, argument] on one line and
// flushed immediately. Send may be called from any goroutine once Start has
// returned.
//
// # Shutdown
//
// Dispose closes the child's stdin and marks the bridge as shut down, so the
// end of stdout is no longer reported as a crash. By default the child is
// then given a grace period to exit before its process group is signalled and
// finally killed; WithKeepChildOnDispose restores the behaviour of leaving it
// to exit on its own. Wait blocks until the child has been reaped.
//
// # Error Handling
//
// Launch failures are returned from Start as *LaunchError. An unexpected exit
// is reported once as a Crashed event and by Wait as *ProcessError with the
// exit code and the last lines of stderr. Sends fail with ErrChannelNotReady
// before Start and ErrDisposed after Dispose.
package noderpc
