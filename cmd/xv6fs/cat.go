package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomgrim-xx/xv6fs"
)

func newCatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <image> <path>",
		Short: "print the contents of a file in an xv6fs image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := openImage(args[0])
			if err != nil {
				return err
			}
			defer fs.Close()

			proc := &xv6fs.Proc{Cwd: fs.Iget(xv6fs.RootDev, xv6fs.RootIno), Killed: func() bool { return false }}
			ip, err := fs.Namei(proc, args[1])
			if err != nil {
				return err
			}
			defer ip.Iput()

			if err := ip.Ilock(); err != nil {
				return err
			}
			defer ip.Iunlock()
			if ip.Type != xv6fs.TFile {
				return xv6fs.ErrIsDir
			}

			f := ip.OpenFile(args[1])
			_, err = io.Copy(os.Stdout, f.(io.Reader))
			return err
		},
	}
}
