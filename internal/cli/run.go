package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	noderpc "github.com/wagiedev/noderpc-go"
)

// ErrCrashed is returned by run when the child exits before it was asked to.
var ErrCrashed = errors.New("child process crashed")

type runFlags struct {
	gracePeriod time.Duration
	keepChild   bool
}

func newRunCommand(global *globalFlags) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run [flags] [-- command [args...]]",
		Short: "Run a child and relay lines between it and this terminal",
		Long: `Run starts the child, writes every framed line it prints ('[' first) to
stdout and forwards each line read from stdin to the child unchanged.
End of stdin or an interrupt disposes the bridge.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var extra []noderpc.Option

			if cmd.Flags().Changed("grace-period") {
				extra = append(extra, noderpc.WithGracePeriod(flags.gracePeriod))
			}

			if flags.keepChild {
				extra = append(extra, noderpc.WithKeepChildOnDispose())
			}

			s, err := newSession(global, args, cmd.ErrOrStderr(), extra...)
			if err != nil {
				return err
			}
			defer s.Close()

			return relay(cmd.Context(), s, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().SetInterspersed(false)
	cmd.Flags().DurationVar(&flags.gracePeriod, "grace-period", 0, "time given to the child at each shutdown step")
	cmd.Flags().BoolVar(&flags.keepChild, "keep-child", false, "do not terminate the child on shutdown")

	return cmd
}

// relay runs one bridge session until the child's stdout ends.
func relay(ctx context.Context, s *session, in io.Reader, out io.Writer) error {
	b := s.bridge

	if err := b.Start(ctx); err != nil {
		return err
	}

	serveCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispose := func() {
		_ = b.Dispose()

		if s.keepChild {
			cancel()
		}
	}

	stop := context.AfterFunc(ctx, func() {
		s.log.Info("interrupted, disposing bridge")
		dispose()
	})
	defer stop()

	go forwardInput(s, in, dispose)

	crashed := false

	err := b.Serve(serveCtx, noderpc.HandlerFuncs{
		OnLaunchComplete: func() {
			s.log.Info("child started", "pid", b.Pid(), "bridge_id", b.ID())
		},
		OnMessage: func(line string) {
			fmt.Fprintln(out, line)
		},
		OnCrash: func() {
			crashed = true
		},
	})
	if err != nil {
		if s.keepChild && errors.Is(err, context.Canceled) {
			s.log.Info("leaving child running", "pid", b.Pid())

			return nil
		}

		return err
	}

	waitErr := b.Wait()
	if crashed {
		return fmt.Errorf("%w: %w", ErrCrashed, waitErr)
	}

	return nil
}

// forwardInput sends each input line to the child and calls dispose at EOF.
func forwardInput(s *session, in io.Reader, dispose func()) {
	defer dispose()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := s.bridge.SendRaw(scanner.Text()); err != nil {
			s.log.Warn("forwarding input failed", "error", err)

			return
		}
	}

	if err := scanner.Err(); err != nil {
		s.log.Warn("reading input failed", "error", err)
	}
}
