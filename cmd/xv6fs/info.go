package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomgrim-xx/xv6fs/inspect"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <image>",
		Short: "print summary information about an xv6fs image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := openImage(args[0])
			if err != nil {
				return err
			}
			defer fs.Close()

			sb := fs.Superblock()
			fmt.Printf("size:     %d blocks\n", sb.Size)
			fmt.Printf("nblocks:  %d\n", sb.NBlocks)
			fmt.Printf("ninodes:  %d\n", sb.NInodes)

			summary, err := inspect.Info(fs)
			if err != nil {
				return err
			}
			fmt.Printf("files:    %d\n", summary.Files)
			fmt.Printf("dirs:     %d\n", summary.Dirs)
			fmt.Printf("devices:  %d\n", summary.Devs)
			return nil
		},
	}
}

func newFsckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fsck <image>",
		Short: "check an xv6fs image for consistency violations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := openImage(args[0])
			if err != nil {
				return err
			}
			defer fs.Close()

			report, err := inspect.Check(fs)
			if err != nil {
				return err
			}
			if report.OK {
				fmt.Println("ok")
				return nil
			}
			for _, p := range report.Problems {
				fmt.Println(p)
			}
			return fmt.Errorf("%d problem(s) found", len(report.Problems))
		},
	}
}
