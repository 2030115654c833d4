package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipstash/internal/engine"
	"go.klb.dev/clipstash/internal/message"
)

func newExportCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write the whole history to a JSON file",
		Long: `Writes the history to a file in the same JSON format as the history file,
most recent first. The file can be read back with "clipstash import".`,
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(_ *cobra.Command, args []string) error {
			setupCLILogging(v)
			path, err := absPath(args[0])
			if err != nil {
				return err
			}
			resp, _, err := request(v, &message.Message{Type: message.TypeExport, Path: path})
			if err != nil {
				return err
			}
			fmt.Println(resp.Message)
			return nil
		},
	}

	addClientFlags(cmd)

	return cmd
}

func newImportCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load entries from a JSON file",
		Long: `Reads entries exported by "clipstash export" (or an older history file).

By default the history is replaced by the file's entries. With --merge the
entries are added to the history instead; an entry whose content is already
present is not added twice, and keeps the more recent of the two times.
Either way the result is ordered most recent first and cut to capacity.

A file that fails to parse is rejected as a whole and the history is left
unchanged.`,
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(_ *cobra.Command, args []string) error {
			setupCLILogging(v)
			path, err := absPath(args[0])
			if err != nil {
				return err
			}
			mode := engine.Overwrite
			if v.GetBool("merge") {
				mode = engine.Merge
			}
			resp, _, err := request(v, &message.Message{Type: message.TypeImport, Path: path, Mode: mode.String()})
			if err != nil {
				return err
			}
			fmt.Println(resp.Message)

			var sum engine.Summary
			if len(resp.Summary) > 0 && json.Unmarshal(resp.Summary, &sum) == nil {
				fmt.Printf("read %d, added %d, history now has %d entries\n", sum.Read, sum.Added, sum.Total)
			}
			return nil
		},
	}

	cmd.Flags().Bool("merge", false, "merge into the history instead of replacing it")
	addClientFlags(cmd)

	return cmd
}
