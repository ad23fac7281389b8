// Package notify defines the notification interface and its delivery
// channels for new matches.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/textproto"

	domain "github.com/donaldgifford/fundgrube-watcher/pkg/types"
)

// Notifier delivers match reports and plain-text messages.
type Notifier interface {
	// SendMatches delivers one report covering every match.
	SendMatches(ctx context.Context, matches []domain.Match) error
	// SendText delivers a free-form message.
	SendText(ctx context.Context, subject, body string) error
}

// NotifyError reports a failed delivery.
type NotifyError struct {
	Channel string
	Err     error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify %s: %v", e.Channel, e.Err)
}

func (e *NotifyError) Unwrap() error { return e.Err }

// Kind identifies the failure class for error-state tracking.
func (e *NotifyError) Kind() string {
	if e.IsAuth() {
		return "notify:" + e.Channel + ":auth"
	}
	return "notify:" + e.Channel
}

// IsAuth reports whether the server rejected the credentials.
func (e *NotifyError) IsAuth() bool {
	var tp *textproto.Error
	if errors.As(e.Err, &tp) {
		switch tp.Code {
		case 530, 534, 535:
			return true
		}
	}
	return false
}

// IsAuthError reports whether err contains a credential rejection.
func IsAuthError(err error) bool {
	var ne *NotifyError
	return errors.As(err, &ne) && ne.IsAuth()
}
