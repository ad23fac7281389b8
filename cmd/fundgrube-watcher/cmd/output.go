package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"text/tabwriter"
	"time"

	"github.com/donaldgifford/fundgrube-watcher/internal/engine"
	domain "github.com/donaldgifford/fundgrube-watcher/pkg/types"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printSeenTable(w io.Writer, entries []domain.SeenEntry) error {
	tw := newTabWriter(w)
	tw.writef("DATE\tID\tPRICE\tNAME\tURL\n")
	for i := range entries {
		tw.writef("%s\t%s\t%.2f\t%s\t%s\n",
			entries[i].SeenAt.Local().Format(time.DateTime),
			entries[i].ID,
			entries[i].Price,
			truncate(entries[i].Title, 50),
			entries[i].URL,
		)
	}
	return tw.finish()
}

func printRunResult(w io.Writer, res *engine.RunResult) error {
	tw := newTabWriter(w)
	tw.writef("Run:\t%s\n", res.RunID)
	tw.writef("Started:\t%s\n", res.StartedAt.Local().Format(time.DateTime))
	tw.writef("Duration:\t%s\n", res.Duration.Round(time.Millisecond))
	tw.writef("Fetched:\t%d\n", res.Fetched)
	tw.writef("Matched:\t%d\n", res.Matched)
	tw.writef("New:\t%d\n", res.New)
	tw.writef("Notified:\t%d\n", res.Notified)
	for _, s := range res.Stores {
		status := fmt.Sprintf("%d items", s.Items)
		if s.Error != "" {
			status = "failed: " + s.Error
		}
		tw.writef("Store %s:\t%s\n", s.Store, status)
	}
	for _, e := range res.Errors {
		tw.writef("Error:\t%s\n", e)
	}
	return tw.finish()
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// redactDSN hides the password of a database URL.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
