package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	domain "github.com/donaldgifford/fundgrube-watcher/pkg/types"
)

// ConsoleNotifier implements Notifier by printing to a writer. It is used
// for dry runs and when no mail sender is configured.
type ConsoleNotifier struct {
	w   io.Writer
	log *slog.Logger
}

// NewConsoleNotifier creates a notifier that prints to w.
func NewConsoleNotifier(w io.Writer, log *slog.Logger) *ConsoleNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &ConsoleNotifier{w: w, log: log}
}

// SendMatches prints the matches as a table.
func (n *ConsoleNotifier) SendMatches(_ context.Context, matches []domain.Match) error {
	if len(matches) == 0 {
		return nil
	}

	n.log.Debug("printing matches (no mail backend)", "count", len(matches))

	tw := newTabWriter(n.w)
	tw.writef("%s\n", MatchesSubject(len(matches)))
	tw.writef("STORE\tPRICE\tSHIPPING\tDISCOUNT\tRULES\tTITLE\tURL\n")
	for i := range matches {
		it := &matches[i].Item
		tw.writef("%s\t%.2f\t%.2f\t%.0f%%\t%s\t%s\t%s\n",
			storeLabel(it),
			it.Price,
			it.ShippingCost,
			it.DiscountPercent,
			truncate(fmt.Sprint(matches[i].Terms()), 30),
			truncate(it.Title, 50),
			it.DirectURL(),
		)
	}
	return tw.finish()
}

// SendText prints the subject and body.
func (n *ConsoleNotifier) SendText(_ context.Context, subject, body string) error {
	_, err := fmt.Fprintf(n.w, "%s\n\n%s\n", subject, body)
	return err
}

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

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
