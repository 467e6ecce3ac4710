package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tomgrim-xx/xv6fs/mkfs"
)

func newMkfsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mkfs <image> <blocksize> <total-blocks> [file...]",
		Short: "build a new xv6fs image",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			blockSize, err := strconv.Atoi(args[1])
			if err != nil {
				return err
			}
			totalBlocks, err := strconv.ParseUint(args[2], 10, 32)
			if err != nil {
				return err
			}
			return mkfs.Build(args[0], blockSize, uint32(totalBlocks), args[3:])
		},
	}
}
