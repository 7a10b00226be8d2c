package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"code.cloudfoundry.org/bytefmt"
	"github.com/dogmatiq/crowdcontrol/journal"
	"github.com/spf13/cobra"
)

func newStatCommand(ctx context.Context, dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stat",
		Short: "Summarize a journal that is not open, without modifying it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := journal.Verify(ctx, *dir)
			if err != nil {
				return err
			}

			size, err := diskUsage(*dir)
			if err != nil {
				return err
			}

			fmt.Printf("directory:  %s\n", *dir)
			fmt.Printf("segments:   %d\n", summary.Segments)
			fmt.Printf("records:    %d\n", summary.Records)
			fmt.Printf("size:       %s\n", bytefmt.ByteSize(size))
			fmt.Printf("incomplete: %s\n", bytefmt.ByteSize(uint64(summary.TornBytes)))

			return nil
		},
	}
}

// diskUsage returns the total size of the segment files in dir.
func diskUsage(dir string) (uint64, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.seg"))
	if err != nil {
		return 0, err
	}

	var size uint64
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			return 0, err
		}
		size += uint64(info.Size())
	}

	return size, nil
}
