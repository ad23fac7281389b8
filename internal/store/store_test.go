package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	tests := []struct {
		name    string
		dsn     string
		check   func(t *testing.T, s SeenStore)
		wantErr bool
	}{
		{
			name: "plain path is a csv file",
			dsn:  filepath.Join(dir, "old_results.csv"),
			check: func(t *testing.T, s SeenStore) {
				t.Helper()
				fs, ok := s.(*FileStore)
				require.True(t, ok)
				assert.Equal(t, filepath.Join(dir, "old_results.csv"), fs.Path())
			},
		},
		{
			name: "file scheme",
			dsn:  "file://" + filepath.Join(dir, "x.csv"),
			check: func(t *testing.T, s SeenStore) {
				t.Helper()
				fs, ok := s.(*FileStore)
				require.True(t, ok)
				assert.Equal(t, filepath.Join(dir, "x.csv"), fs.Path())
			},
		},
		{
			name: "sqlite scheme",
			dsn:  "sqlite://" + filepath.Join(dir, "seen.db"),
			check: func(t *testing.T, s SeenStore) {
				t.Helper()
				_, ok := s.(*SQLiteStore)
				assert.True(t, ok)
			},
		},
		{
			name:    "empty",
			dsn:     "  ",
			wantErr: true,
		},
		{
			name:    "unparseable postgres dsn",
			dsn:     "postgres://%zz",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, err := Open(context.Background(), tt.dsn)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			tt.check(t, s)
		})
	}
}
