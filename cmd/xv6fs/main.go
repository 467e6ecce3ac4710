// Command xv6fs is a CLI over xv6fs images: build them, list and read
// their contents, check their consistency, and snapshot them to and
// from a compressed archive. Grounded on the teacher's cmd/sqfs and on
// direktiv-vorteil's cmd/vorteil cobra layout.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "xv6fs",
		Short: "inspect, build and serve xv6fs disk images",
	}
	root.PersistentFlags().Bool("verbose", false, "enable debug logging")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("verbose"); v {
			logrus.SetLevel(logrus.DebugLevel)
		}
	}

	root.AddCommand(
		newMkfsCmd(),
		newLsCmd(),
		newCatCmd(),
		newInfoCmd(),
		newFsckCmd(),
		newSnapshotCmd(),
	)
	addMountCmd(root)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "xv6fs:", err)
		os.Exit(1)
	}
}
