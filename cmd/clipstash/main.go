// clipstash: clipboard history daemon and CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "clipstash",
		Short: "Clipboard history",
		Long: `clipstash records everything copied to the system clipboard (text and
images) into a bounded, deduplicated history that survives restarts.

Run "clipstash daemon" to start recording. The other commands talk to the
daemon over a local socket; when no daemon is running they operate on the
history file directly.

Entry IDs are assigned when the history is loaded and are only valid for the
lifetime of the running daemon. Commands that take an entry also accept its
position as shown by "clipstash list" (1 = most recent).

Config file search order (first found wins):
  /etc/clipstash/clipstash.toml
  $HOME/.config/clipstash/clipstash.toml
  path supplied via --config

All flags can be set via CLIPSTASH_<FLAG> env vars or config-file keys.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newDaemonCmd(),
		newListCmd(),
		newCopyCmd(),
		newDeleteCmd(),
		newClearCmd(),
		newExportCmd(),
		newImportCmd(),
		newStatusCmd(),
		newDirCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("clipstash %s\n", Version)
		},
	}
}
