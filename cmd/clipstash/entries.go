package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipstash/internal/message"
)

func newCopyCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "copy <id|position>",
		Short: "Put a history entry back on the clipboard",
		Long: `Writes an entry back to the system clipboard and moves it to the top of
the history. The daemon does not record this write as a new copy.

The entry is given by its ID or its position in "clipstash list".`,
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(_ *cobra.Command, args []string) error {
			return runEntryOp(v, message.TypeCopy, args[0])
		},
	}

	cmd.Flags().String("backend", "auto", "clipboard backend used when no daemon is running")
	addClientFlags(cmd)

	return cmd
}

func newDeleteCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "delete <id|position>",
		Aliases: []string{"rm"},
		Short:   "Delete a history entry",
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(_ *cobra.Command, args []string) error {
			return runEntryOp(v, message.TypeDelete, args[0])
		},
	}

	addClientFlags(cmd)

	return cmd
}

func newClearCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "clear",
		Short:   "Delete every history entry",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(_ *cobra.Command, _ []string) error {
			setupCLILogging(v)
			resp, _, err := request(v, &message.Message{Type: message.TypeClear})
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

func runEntryOp(v *viper.Viper, typ message.Type, key string) error {
	setupCLILogging(v)
	resp, _, err := request(v, &message.Message{Type: typ, ID: key})
	if err != nil {
		return err
	}
	fmt.Println(resp.Message)
	return nil
}
