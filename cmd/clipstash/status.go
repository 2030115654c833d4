package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipstash/internal/engine"
	"go.klb.dev/clipstash/internal/message"
)

func newStatusCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and history status",
		Long: `Shows where the history lives, how full it is and, when a daemon is
running, what the clipboard monitor has seen since it started.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runStatus(v) },
	}

	cmd.Flags().Bool("json", false, "output raw JSON")
	addClientFlags(cmd)

	return cmd
}

func runStatus(v *viper.Viper) error {
	setupCLILogging(v)

	resp, transport, err := request(v, &message.Message{Type: message.TypeStatus})
	if err != nil {
		return err
	}

	var st engine.Status
	if err := json.Unmarshal(resp.Status, &st); err != nil {
		return fmt.Errorf("decode status: %w", err)
	}

	if v.GetBool("json") {
		enc, _ := json.MarshalIndent(st, "", "  ")
		fmt.Println(string(enc))
		return nil
	}

	printStatus(os.Stdout, st, transport, time.Now())
	return nil
}

func printStatus(out io.Writer, st engine.Status, transport string, now time.Time) {
	w := tabwriter.NewWriter(out, 1, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Transport:\t%s\n", transport)
	fmt.Fprintf(w, "History:\t%s\n", st.HistoryFile)
	fmt.Fprintf(w, "Entries:\t%d / %d\n", st.Entries, st.Capacity)
	fmt.Fprintf(w, "Backend:\t%s\n", st.Backend)

	// An engine that never ran has not ticked.
	if m := st.Monitor; m.Ticks > 0 {
		fmt.Fprintf(w, "Interval:\t%s\n", st.Interval)
		fmt.Fprintf(w, "Monitor:\t%s, %s polls\n", m.State, humanize.Comma(m.Ticks))
		fmt.Fprintf(w, "Changes:\t%d seen, %d recorded, %d own writes ignored, %d failed\n",
			m.Changes, m.Ingested, m.Suppressed, m.Errors)
		if !m.LastChange.IsZero() {
			fmt.Fprintf(w, "Last change:\t%s\n", humanize.RelTime(m.LastChange, now, "ago", "from now"))
		}
	}
	_ = w.Flush()
}

func newDirCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "dir",
		Short:   "Print the history directory",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(_ *cobra.Command, _ []string) error {
			dir, err := pathsFrom(v).Dir()
			if err != nil {
				return err
			}
			fmt.Println(dir)
			return nil
		},
	}

	addClientFlags(cmd)

	return cmd
}
