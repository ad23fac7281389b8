package notify

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/donaldgifford/fundgrube-watcher/internal/metrics"
)

// ErrorState sends one message per distinct failure kind and one message
// once the failures stop. The last reported kind is kept in a file so the
// state survives between runs.
type ErrorState struct {
	path     string
	notifier Notifier
	log      *slog.Logger
}

// NewErrorState creates an ErrorState persisted at path.
func NewErrorState(path string, n Notifier, log *slog.Logger) *ErrorState {
	if log == nil {
		log = slog.Default()
	}
	return &ErrorState{path: path, notifier: n, log: log}
}

// Report records the outcome of a run:
//   - a failure whose kind differs from the stored kind sends an error message
//   - a success after a stored failure sends a fixed message and clears the state
//
// The state only changes once the message was delivered.
func (s *ErrorState) Report(ctx context.Context, runErr error) error {
	prev, err := s.load()
	if err != nil {
		return err
	}

	if runErr != nil {
		kind := ErrorKind(runErr)
		if kind == prev {
			s.log.Debug("error already reported", "kind", kind)
			return nil
		}
		if err := s.notifier.SendText(ctx, ErrorSubject, ErrorBody(runErr)); err != nil {
			return fmt.Errorf("sending error notification: %w", err)
		}
		metrics.NotificationsSentTotal.WithLabelValues("error").Inc()
		return s.store(kind)
	}

	if prev == "" {
		return nil
	}
	if err := s.notifier.SendText(ctx, FixedSubject, FixedBody); err != nil {
		return fmt.Errorf("sending error fixed notification: %w", err)
	}
	metrics.NotificationsSentTotal.WithLabelValues("fixed").Inc()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clearing error state: %w", err)
	}
	return nil
}

func (s *ErrorState) load() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading error state: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *ErrorState) store(kind string) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating error state directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, []byte(kind+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing error state: %w", err)
	}
	return nil
}

// ErrorKind classifies err. Errors exposing Kind() name themselves; joined
// errors combine the kinds of their parts; anything else is named by type.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	if k, ok := err.(interface{ Kind() string }); ok {
		return k.Kind()
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var kinds []string
		for _, e := range j.Unwrap() {
			if k := ErrorKind(e); k != "" {
				kinds = append(kinds, k)
			}
		}
		slices.Sort(kinds)
		return strings.Join(slices.Compact(kinds), ",")
	}
	if inner := errors.Unwrap(err); inner != nil {
		return ErrorKind(inner)
	}
	return fmt.Sprintf("%T", err)
}
