package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/fundgrube-watcher/internal/api/handlers"
	domain "github.com/donaldgifford/fundgrube-watcher/pkg/types"
)

type mockSeenStore struct {
	mock.Mock
}

func (m *mockSeenStore) Entries(ctx context.Context) ([]domain.SeenEntry, error) {
	args := m.Called(ctx)
	entries, _ := args.Get(0).([]domain.SeenEntry)
	return entries, args.Error(1)
}

func (m *mockSeenStore) Reset(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func seenEntries(ids ...string) []domain.SeenEntry {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	out := make([]domain.SeenEntry, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.SeenEntry{ID: id, Title: "Item " + id, Price: 9.99, SeenAt: at})
	}
	return out
}

func TestSeenHandler_List(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		entries    []domain.SeenEntry
		err        error
		wantStatus int
		wantIDs    []string
		wantTotal  int
	}{
		{
			name:       "all entries",
			path:       "/api/v1/seen",
			entries:    seenEntries("1", "2", "3"),
			wantStatus: http.StatusOK,
			wantIDs:    []string{"1", "2", "3"},
			wantTotal:  3,
		},
		{
			name:       "limit and offset",
			path:       "/api/v1/seen?limit=1&offset=1",
			entries:    seenEntries("1", "2", "3"),
			wantStatus: http.StatusOK,
			wantIDs:    []string{"2"},
			wantTotal:  3,
		},
		{
			name:       "offset past end",
			path:       "/api/v1/seen?offset=10",
			entries:    seenEntries("1"),
			wantStatus: http.StatusOK,
			wantIDs:    []string{},
			wantTotal:  1,
		},
		{
			name:       "empty history",
			path:       "/api/v1/seen",
			wantStatus: http.StatusOK,
			wantIDs:    []string{},
		},
		{
			name:       "store error",
			path:       "/api/v1/seen",
			err:        errors.New("disk"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := &mockSeenStore{}
			m.On("Entries", mock.Anything).Return(tt.entries, tt.err).Once()

			_, api := humatest.New(t)
			handlers.RegisterSeenRoutes(api, handlers.NewSeenHandler(m))

			resp := api.Get(tt.path)
			require.Equal(t, tt.wantStatus, resp.Code)
			m.AssertExpectations(t)
			if tt.wantStatus != http.StatusOK {
				return
			}

			var body struct {
				Items []domain.SeenEntry `json:"items"`
				Total int                `json:"total"`
			}
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
			ids := make([]string, 0, len(body.Items))
			for _, e := range body.Items {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantTotal, body.Total)
		})
	}
}

func TestSeenHandler_Reset(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		m := &mockSeenStore{}
		m.On("Reset", mock.Anything).Return(nil).Once()

		_, api := humatest.New(t)
		handlers.RegisterSeenRoutes(api, handlers.NewSeenHandler(m))

		resp := api.Delete("/api/v1/seen")
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"status":"reset"`)
		m.AssertExpectations(t)
	})

	t.Run("store error", func(t *testing.T) {
		t.Parallel()

		m := &mockSeenStore{}
		m.On("Reset", mock.Anything).Return(errors.New("read-only")).Once()

		_, api := humatest.New(t)
		handlers.RegisterSeenRoutes(api, handlers.NewSeenHandler(m))

		resp := api.Delete("/api/v1/seen")
		assert.Equal(t, http.StatusInternalServerError, resp.Code)
		assert.Contains(t, resp.Body.String(), "read-only")
	})
}
