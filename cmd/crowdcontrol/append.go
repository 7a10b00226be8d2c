package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dogmatiq/crowdcontrol/future"
	"github.com/dogmatiq/crowdcontrol/journal"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newAppendCommand(
	ctx context.Context,
	open func() (*journal.Journal, error),
) *cobra.Command {
	return &cobra.Command{
		Use:   "append",
		Short: "Append each line of standard input as a record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			j, err := open()
			if err != nil {
				return err
			}
			defer closeJournal(j, &err)

			return appendLines(ctx, j, os.Stdin)
		},
	}
}

// appendLines appends each line read from r to j, printing the position of
// each record once it is durable. Lines may be of any length.
func appendLines(ctx context.Context, j *journal.Journal, r io.Reader) error {
	g, ctx := errgroup.WithContext(ctx)
	pending := make(chan future.Failable[journal.Position], 128)

	g.Go(func() error {
		defer close(pending)

		br := bufio.NewReader(r)

		for {
			line, err := br.ReadBytes('\n')
			if err == io.EOF {
				if len(line) == 0 {
					return nil
				}
			} else if err != nil {
				return err
			}

			line = bytes.TrimSuffix(line, []byte("\n"))
			line = bytes.TrimSuffix(line, []byte("\r"))

			_, fut, aerr := j.Append(line)
			if aerr != nil {
				return aerr
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case pending <- fut:
			}

			if err == io.EOF {
				return nil
			}
		}
	})

	g.Go(func() error {
		for fut := range pending {
			pos, err := fut.Wait(ctx)
			if err != nil {
				return err
			}
			fmt.Println(pos)
		}
		return nil
	})

	return g.Wait()
}
