//go:build fuse

package main

import (
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/spf13/cobra"

	"github.com/tomgrim-xx/xv6fs/fusefs"
)

func addMountCmd(root *cobra.Command) {
	root.AddCommand(&cobra.Command{
		Use:   "mount <image> <mountpoint>",
		Short: "mount an xv6fs image read-write over FUSE",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			xfs, err := openImage(args[0])
			if err != nil {
				return err
			}
			defer xfs.Close()

			server, err := fusefs.Mount(xfs, args[1], &fs.Options{})
			if err != nil {
				return err
			}
			server.Wait()
			return nil
		},
	})
}
