// Package cli implements the noderpc command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	noderpc "github.com/wagiedev/noderpc-go"
	"github.com/wagiedev/noderpc-go/internal/config"
)

// Version is set at build time.
var Version = "dev"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	transcript string
}

// NewRootCommand builds the noderpc command tree.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "noderpc",
		Short:         "Supervise a child process and exchange line-framed messages with it",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to YAML config file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVarP(&flags.transcript, "transcript", "t", "", "append the transcript to this file")

	root.AddCommand(newRunCommand(flags))
	root.AddCommand(newServeMCPCommand(flags))
	root.AddCommand(newVersionCommand())

	return root
}

// Execute runs the root command against the process's arguments.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}

	return nil
}

// session is a configured but unstarted bridge plus the resources it owns.
type session struct {
	bridge     noderpc.Bridge
	log        *slog.Logger
	transcript io.Closer

	// keepChild means Dispose leaves the child running, so its exit must not be awaited.
	keepChild bool
}

// Close releases the transcript file, if one was opened.
func (s *session) Close() error {
	if s.transcript == nil {
		return nil
	}

	return s.transcript.Close()
}

// newSession merges the config file, flags and positional command into a bridge.
// Positional args, when present, replace the configured command.
func newSession(flags *globalFlags, args []string, stderr io.Writer, overrides ...noderpc.Option) (*session, error) {
	file := &config.File{}

	if flags.configPath != "" {
		loaded, err := config.Load(flags.configPath)
		if err != nil {
			return nil, err
		}

		file = loaded
	}

	levelName := file.LogLevel
	if flags.logLevel != "" {
		levelName = flags.logLevel
	}

	level, err := config.ParseLogLevel(levelName)
	if err != nil {
		return nil, err
	}

	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	options := &noderpc.Options{}
	file.Apply(options)

	if len(args) > 0 {
		options.Path = args[0]
		options.Args = args[1:]
	}

	if options.Path == "" {
		return nil, fmt.Errorf("no command given: pass one after -- or set command in the config file")
	}

	options.Logger = log

	for _, override := range overrides {
		override(options)
	}

	s := &session{log: log, keepChild: options.KeepChildOnDispose}

	transcriptPath := file.Transcript
	if flags.transcript != "" {
		transcriptPath = flags.transcript
	}

	if transcriptPath != "" {
		f, err := os.OpenFile(transcriptPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening transcript: %w", err)
		}

		options.Transcript = f
		s.transcript = f
	}

	s.bridge = noderpc.New(noderpc.WithConfig(options))

	return s, nil
}
