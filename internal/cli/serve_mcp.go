package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	noderpc "github.com/wagiedev/noderpc-go"
)

func newServeMCPCommand(global *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve-mcp [flags] [-- command [args...]]",
		Short: "Run a child and expose it to an MCP client over stdio",
		Long: `serve-mcp starts the child and serves the send, send_raw, transcript and
status tools over stdin and stdout. Messages from the child are logged to
stderr and recorded in the transcript. The child is disposed when the client
disconnects.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(global, args, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			return serveMCP(cmd.Context(), s, func(ctx context.Context, srv *noderpc.ControlServer) error {
				return srv.ServeStdio(ctx)
			})
		},
	}

	cmd.Flags().SetInterspersed(false)

	return cmd
}

// serveMCP starts the bridge, logs its events and runs serve until it returns.
func serveMCP(
	ctx context.Context,
	s *session,
	serve func(context.Context, *noderpc.ControlServer) error,
) error {
	b := s.bridge

	if err := b.Start(ctx); err != nil {
		return err
	}

	events := make(chan struct{})

	go func() {
		defer close(events)

		_ = b.Serve(context.Background(), noderpc.HandlerFuncs{
			OnLaunchComplete: func() { s.log.Info("child started", "pid", b.Pid(), "bridge_id", b.ID()) },
			OnMessage:        func(line string) { s.log.Info("child message", "line", line) },
			OnCrash:          func() { s.log.Error("child process crashed", "pid", b.Pid()) },
		})
	}()

	srv := noderpc.NewControlServer("noderpc", Version, b)
	serveErr := serve(ctx, srv)

	if err := b.Dispose(); err != nil {
		s.log.Warn("failed to dispose bridge", "error", err)
	}

	if !s.keepChild {
		<-events

		if err := b.Wait(); err != nil {
			s.log.Debug("child exited", "error", err)
		}
	}

	if errors.Is(serveErr, context.Canceled) {
		return nil
	}

	return serveErr
}
