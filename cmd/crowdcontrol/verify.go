package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/dogmatiq/crowdcontrol/journal"
	"github.com/spf13/cobra"
)

func newVerifyCommand(ctx context.Context, dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the integrity of a journal that is not open",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := journal.Verify(ctx, *dir)

			var corrupt *journal.CorruptionError
			if errors.As(err, &corrupt) {
				return fmt.Errorf("journal can not be recovered: %w", err)
			} else if err != nil {
				return err
			}

			if summary.TornBytes != 0 {
				fmt.Printf(
					"ok: %d record(s), %d byte(s) of incomplete writes will be discarded on open\n",
					summary.Records,
					summary.TornBytes,
				)
			} else {
				fmt.Printf("ok: %d record(s)\n", summary.Records)
			}

			return nil
		},
	}
}
