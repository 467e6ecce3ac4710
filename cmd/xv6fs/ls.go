package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomgrim-xx/xv6fs"
	"github.com/tomgrim-xx/xv6fs/inspect"
)

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <image> [path]",
		Short: "list files in an xv6fs image",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/"
			if len(args) > 1 {
				path = args[1]
			}

			fs, err := openImage(args[0])
			if err != nil {
				return err
			}
			defer fs.Close()

			proc := &xv6fs.Proc{Cwd: fs.Iget(xv6fs.RootDev, xv6fs.RootIno), Killed: func() bool { return false }}
			ip, err := fs.Namei(proc, path)
			if err != nil {
				return err
			}

			return inspect.Walk(fs, ip, path, func(p string, entry *xv6fs.Inode) error {
				if p == path {
					return nil
				}
				fmt.Println(p)
				return nil
			})
		},
	}
}
