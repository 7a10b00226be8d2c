// Command crowdcontrol inspects and appends to a local journal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dogmatiq/crowdcontrol/internal/config"
	"github.com/dogmatiq/crowdcontrol/journal"
	"github.com/dogmatiq/ferrite"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"
)

func main() {
	ferrite.Init()

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	if err := newRootCommand(ctx).Execute(); err != nil {
		cancel()
		os.Exit(1)
	}
}

func newRootCommand(ctx context.Context) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:          "crowdcontrol",
		Short:        "Inspect and append to a local journal",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVarP(
		&dir,
		"dir", "d",
		config.JournalDir(),
		"the journal directory",
	)

	open := func() (*journal.Journal, error) {
		return journal.Open(
			ctx,
			dir,
			journal.WithOptionsFromEnvironment(),
			journal.WithLogger(newLogger()),
		)
	}

	cmd.AddCommand(
		newAppendCommand(ctx, open),
		newDumpCommand(ctx, open),
		newStatCommand(ctx, &dir),
		newVerifyCommand(ctx, &dir),
	)

	return cmd
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if config.Debug() {
		level = slog.LevelDebug
	}

	return slog.New(
		slog.NewJSONHandler(
			os.Stderr,
			&slog.HandlerOptions{
				Level: level,
			},
		),
	)
}

// closeJournal closes j, reporting any error that occurs unless err is already
// non-nil.
func closeJournal(j *journal.Journal, err *error) {
	if cerr := j.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("unable to close journal: %w", cerr)
	}
}
