package notify

import (
	"context"
	"errors"

	domain "github.com/donaldgifford/fundgrube-watcher/pkg/types"
)

// Multi fans a notification out to every channel. Every channel is tried;
// the call fails if any of them failed.
type Multi []Notifier

// SendMatches implements Notifier.SendMatches.
func (m Multi) SendMatches(ctx context.Context, matches []domain.Match) error {
	var errs []error
	for _, n := range m {
		if err := n.SendMatches(ctx, matches); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SendText implements Notifier.SendText.
func (m Multi) SendText(ctx context.Context, subject, body string) error {
	var errs []error
	for _, n := range m {
		if err := n.SendText(ctx, subject, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
