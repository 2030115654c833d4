package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipstash/internal/history"
	"go.klb.dev/clipstash/internal/imaging"
	"go.klb.dev/clipstash/internal/message"
)

const previewWidth = 60

func newListCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the clipboard history, most recent first",
		Long: `Lists the clipboard history, most recent first.

--filter keeps the entries whose text fuzzy-matches the pattern, best match
first. Images match on the word "image".`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runList(v) },
	}

	f := cmd.Flags()
	f.StringP("filter", "f", "", "fuzzy filter on entry text")
	f.IntP("limit", "n", 0, "show at most n entries (0 = all)")
	f.Bool("json", false, "output raw JSON")
	addClientFlags(cmd)

	return cmd
}

// row is one line of list output. Position is the 1-based index in the
// unfiltered history, accepted by copy and delete.
type row struct {
	Position int
	Item     message.Item
	Payload  history.Payload
}

// text is what --filter matches against.
func (r row) text() string {
	if r.Payload.Kind == history.KindImage {
		return "image"
	}
	return r.Payload.Text
}

func runList(v *viper.Viper) error {
	setupCLILogging(v)

	resp, _, err := request(v, &message.Message{Type: message.TypeList})
	if err != nil {
		return err
	}

	rows := filterRows(toRows(resp.Items), v.GetString("filter"))
	if n := v.GetInt("limit"); n > 0 && len(rows) > n {
		rows = rows[:n]
	}

	if v.GetBool("json") {
		items := make([]message.Item, len(rows))
		for i, r := range rows {
			items[i] = r.Item
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	if len(rows) == 0 {
		fmt.Println("No entries.")
		return nil
	}
	printRows(os.Stdout, rows, time.Now())
	return nil
}

// toRows converts listed items, skipping any the daemon sent in a form this
// client cannot read. Positions still count the skipped items.
func toRows(items []message.Item) []row {
	rows := make([]row, 0, len(items))
	for i, it := range items {
		e, err := it.Entry()
		if err != nil {
			slog.Warn("skipping unreadable entry", "err", err)
			continue
		}
		rows = append(rows, row{Position: i + 1, Item: it, Payload: e.Payload})
	}
	return rows
}

type rowSource []row

func (s rowSource) String(i int) string { return s[i].text() }
func (s rowSource) Len() int            { return len(s) }

// filterRows keeps the rows matching pattern, best match first. An empty
// pattern keeps every row in order.
func filterRows(rows []row, pattern string) []row {
	if pattern == "" {
		return rows
	}
	matches := fuzzy.FindFrom(pattern, rowSource(rows))
	out := make([]row, len(matches))
	for i, m := range matches {
		out[i] = rows[m.Index]
	}
	return out
}

func printRows(w io.Writer, rows []row, now time.Time) {
	tw := tabwriter.NewWriter(w, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "#\tID\tTYPE\tSIZE\tCOPIED\tCONTENT\n")
	for _, r := range rows {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.Position,
			r.Item.ID,
			r.Item.Kind,
			humanize.IBytes(uint64(r.Item.Size)),
			humanize.RelTime(r.Item.Timestamp, now, "ago", "from now"),
			describe(r),
		)
	}
	_ = tw.Flush()
}

// describe renders a one-line summary of an entry's content.
func describe(r row) string {
	if r.Payload.Kind == history.KindImage {
		wd, ht, err := imaging.Dimensions(r.Payload.Image)
		if err != nil {
			return "[image]"
		}
		return fmt.Sprintf("[image %dx%d]", wd, ht)
	}
	return history.Preview(oneLine(r.Payload.Text), previewWidth)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
