package main

import (
	"context"
	"fmt"

	"github.com/dogmatiq/crowdcontrol/journal"
	"github.com/spf13/cobra"
)

func newDumpCommand(
	ctx context.Context,
	open func() (*journal.Journal, error),
) *cobra.Command {
	var skip uint64

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print every readable record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			j, err := open()
			if err != nil {
				return err
			}
			defer closeJournal(j, &err)

			return j.Range(
				ctx,
				j.Origin(),
				func(_ context.Context, rec journal.Record) (bool, error) {
					if skip > 0 {
						skip--
						return true, nil
					}

					fmt.Printf("%s\t%q\n", rec.Position, rec.Payload)
					return true, nil
				},
			)
		},
	}

	cmd.Flags().Uint64Var(&skip, "skip", 0, "the number of records to skip")

	return cmd
}
