package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	domain "github.com/donaldgifford/fundgrube-watcher/pkg/types"
)

// TimeLayout is the date format of the CSV history file.
const TimeLayout = "2006-01-02 15:04:05"

// Header is the first row of the CSV history file.
var Header = []string{"Date", "Id", "Name", "Price", "Url"}

// FileStore implements SeenStore on an append-only CSV file. Deleting the
// file resets the history.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a FileStore for path. The file is created lazily.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the history file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load implements SeenStore.Load.
func (s *FileStore) Load(ctx context.Context) (domain.SeenSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	seen := domain.NewSeenSet()
	for i := range rows {
		seen.Add(rows[i].ID, rows[i].SeenAt)
	}
	return seen, nil
}

// Record implements SeenStore.Record.
func (s *FileStore) Record(ctx context.Context, matches []domain.Match, at time.Time) error {
	if len(matches) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readAll(ctx)
	if err != nil {
		return err
	}
	seen := domain.NewSeenSet()
	for i := range rows {
		seen.Add(rows[i].ID, rows[i].SeenAt)
	}

	fresh := entries(matches, seen, at)
	if len(fresh) == 0 {
		return nil
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening seen file: %w", err)
	}

	w := csv.NewWriter(f)
	if info, err := f.Stat(); err == nil && info.Size() == 0 {
		_ = w.Write(Header)
	}
	for i := range fresh {
		if err := w.Write(toRecord(&fresh[i])); err != nil {
			_ = f.Close()
			return fmt.Errorf("writing seen file: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing seen file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing seen file: %w", err)
	}
	return nil
}

// Entries implements SeenStore.Entries.
func (s *FileStore) Entries(ctx context.Context) ([]domain.SeenEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.readAll(ctx)
}

// Reset implements SeenStore.Reset. The file is rewritten with only the header.
func (s *FileStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.create(os.O_TRUNC)
}

// Ping implements SeenStore.Ping by checking the parent directory exists.
func (s *FileStore) Ping(_ context.Context) error {
	if _, err := os.Stat(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("checking seen file directory: %w", err)
	}
	return nil
}

// Close implements SeenStore.Close.
func (s *FileStore) Close() error {
	return nil
}

// readAll parses the history, creating the file with a header when absent.
// Rows with too few columns are skipped.
func (s *FileStore) readAll(ctx context.Context) ([]domain.SeenEntry, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := s.create(os.O_EXCL); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening seen file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var out []domain.SeenEntry
	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading seen file line %d: %w", line, err)
		}

		if line == 1 && len(rec) > 0 && rec[0] == Header[0] {
			continue
		}
		if len(rec) < 2 || rec[1] == "" {
			continue
		}
		out = append(out, fromRecord(rec))
	}
	return out, nil
}

func (s *FileStore) create(flag int) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating seen file directory: %w", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|flag, 0o600)
	if err != nil {
		return fmt.Errorf("creating seen file: %w", err)
	}

	w := csv.NewWriter(f)
	_ = w.Write(Header)
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing seen file header: %w", err)
	}
	return f.Close()
}

func toRecord(e *domain.SeenEntry) []string {
	return []string{
		e.SeenAt.Format(TimeLayout),
		e.ID,
		e.Title,
		strconv.FormatFloat(e.Price, 'f', 2, 64),
		e.URL,
	}
}

func fromRecord(rec []string) domain.SeenEntry {
	e := domain.SeenEntry{ID: rec[1]}
	if t, err := time.ParseInLocation(TimeLayout, rec[0], time.Local); err == nil {
		e.SeenAt = t
	}
	if len(rec) > 2 {
		e.Title = rec[2]
	}
	if len(rec) > 3 {
		e.Price, _ = strconv.ParseFloat(rec[3], 64)
	}
	if len(rec) > 4 {
		e.URL = rec[4]
	}
	return e
}
