package notify

import (
	"fmt"
	"strings"

	domain "github.com/donaldgifford/fundgrube-watcher/pkg/types"
)

// Fixed subjects and bodies of the error-state messages.
const (
	ErrorSubject = "An error occurred"
	FixedSubject = "Error fixed"
	FixedBody    = "Previous error fixed"
)

// MatchesSubject returns the subject line of a match report.
func MatchesSubject(n int) string {
	return fmt.Sprintf("%d new items", n)
}

// Subject prefixes subject when a message goes from an address to itself,
// so self-addressed reports stay recognizable in the inbox.
func Subject(prefix, from, to, subject string) string {
	if prefix != "" && strings.EqualFold(from, to) {
		return prefix + subject
	}
	return subject
}

// MatchesBody renders one block per match: the item line with its direct
// link, followed by the store and the rule terms it satisfied.
func MatchesBody(matches []domain.Match) string {
	var b strings.Builder
	for i := range matches {
		m := &matches[i]
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: %s\n", m.Item.String(), m.Item.DirectURL())

		where := m.Item.Store
		if m.Item.OutletName != "" {
			where += " (" + m.Item.OutletName + ")"
		}
		fmt.Fprintf(&b, "  %s | rules: %s\n", where, strings.Join(m.Terms(), ", "))
	}
	return b.String()
}

// ErrorBody renders a run failure.
func ErrorBody(err error) string {
	return fmt.Sprintf("The last run failed:\n\n%v\n", err)
}
