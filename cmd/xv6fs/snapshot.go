package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tomgrim-xx/xv6fs"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "export or import a compressed whole-image snapshot",
	}
	cmd.PersistentFlags().String("codec", "zstd", "snapshot compression codec (zstd, xz)")
	cmd.AddCommand(newSnapshotExportCmd(), newSnapshotImportCmd())
	return cmd
}

func newSnapshotExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <image> <archive>",
		Short: "write a compressed snapshot of an image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			codecName, _ := cmd.Flags().GetString("codec")
			codec, err := xv6fs.CodecByName(codecName)
			if err != nil {
				return err
			}

			dev, err := xv6fs.NewFileDevice(args[0])
			if err != nil {
				return err
			}
			defer dev.Close()

			out, err := os.Create(args[1])
			if err != nil {
				return err
			}
			defer out.Close()

			fi, err := os.Stat(args[0])
			if err != nil {
				return err
			}
			nsectors := uint32(fi.Size()) / uint32(dev.SectorSize())

			return xv6fs.SnapshotExport(dev, nsectors, out, codec)
		},
	}
}

func newSnapshotImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <archive> <image>",
		Short: "restore an image from a compressed snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			codecName, _ := cmd.Flags().GetString("codec")
			codec, err := xv6fs.CodecByName(codecName)
			if err != nil {
				return err
			}

			in, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			dev, err := xv6fs.NewFileDevice(args[1])
			if err != nil {
				return err
			}
			defer dev.Close()

			return xv6fs.SnapshotImport(in, dev, codec)
		},
	}
}
