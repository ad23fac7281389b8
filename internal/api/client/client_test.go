package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/fundgrube-watcher/internal/engine"
	domain "github.com/donaldgifford/fundgrube-watcher/pkg/types"
)

func TestClient_ConnectionRefused(t *testing.T) {
	t.Parallel()

	c := New("http://127.0.0.1:1") // nothing listening
	_, err := c.ListRules(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API server not running")
}

func TestClient_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.LastRun(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API error (HTTP 500)")
	assert.Contains(t, err.Error(), `{"error":"internal"}`)
	assert.False(t, IsNotFound(err))
}

func TestClient_ProblemDetail(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "fundgrube-watcher-cli", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"title":"Not Found","status":404,"detail":"no run has completed yet"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).LastRun(context.Background())
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "API error (HTTP 404): no run has completed yet", err.Error())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Not Found", apiErr.Title)
}

func TestClient_TriggerRun(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/run", r.URL.Path)
		assert.Empty(t, r.Header.Get("Content-Type"), "no body is sent")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(engine.RunResult{RunID: "r1", Fetched: 7, New: 1})
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	res, err := c.TriggerRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "r1", res.RunID)
	assert.Equal(t, 7, res.Fetched)
	assert.Equal(t, 1, res.New)
}

func TestClient_ListSeen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		limit     int
		offset    int
		wantQuery string
	}{
		{name: "defaults", wantQuery: ""},
		{name: "limit only", limit: 5, wantQuery: "limit=5"},
		{name: "limit and offset", limit: 5, offset: 10, wantQuery: "limit=5&offset=10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/seen", r.URL.Path)
				assert.Equal(t, tt.wantQuery, r.URL.RawQuery)

				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(SeenPage{
					Items: []domain.SeenEntry{{ID: "42", Title: "Laptop"}},
					Total: 1,
				})
			}))
			defer srv.Close()

			page, err := New(srv.URL).ListSeen(context.Background(), tt.limit, tt.offset)
			require.NoError(t, err)
			require.Len(t, page.Items, 1)
			assert.Equal(t, "42", page.Items[0].ID)
			assert.Equal(t, 1, page.Total)
		})
	}
}

func TestClient_ResetSeen(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"$schema":"http://x/schemas/StatusResponse.json","status":"reset"}`))
	}))
	defer srv.Close()

	require.NoError(t, New(srv.URL).ResetSeen(context.Background()))
}

func TestClient_ListRules(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"rules":[{"term":"Zelda","max_price":30}],"stores":["saturn"]}`))
	}))
	defer srv.Close()

	rules, err := New(srv.URL, WithHTTPClient(srv.Client()), WithUserAgent("test")).ListRules(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Rule{{Term: "Zelda", MaxPrice: 30}}, rules.Rules)
	assert.Equal(t, []string{"saturn"}, rules.Stores)
}
