package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/donaldgifford/fundgrube-watcher/internal/fundgrube"
)

func loadTestFixture(t *testing.T) []json.RawMessage {
	t.Helper()
	fixture, err := loadFixture("")
	if err != nil {
		t.Fatalf("loading embedded fixture: %v", err)
	}
	return fixture
}

func getPostings(t *testing.T, handler http.HandlerFunc, query string) (int, postingsResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/de/data/fundgrube/api/postings"+query, http.NoBody)
	w := httptest.NewRecorder()

	handler(w, req)

	var resp postingsResponse
	if w.Code == http.StatusOK {
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
	}
	return w.Code, resp
}

func TestLoadFixture(t *testing.T) {
	fixture := loadTestFixture(t)
	if len(fixture) == 0 {
		t.Fatal("expected postings in fixture")
	}
}

func TestLoadFixture_File(t *testing.T) {
	path := t.TempDir() + "/postings.json"
	if err := os.WriteFile(path, []byte(`{"postings":[{"name":"x","price":1}]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	fixture, err := loadFixture(path)
	if err != nil {
		t.Fatalf("loadFixture: %v", err)
	}
	if len(fixture) != 1 {
		t.Errorf("postings=%d, want 1", len(fixture))
	}

	if _, err := loadFixture(t.TempDir() + "/missing.json"); err == nil {
		t.Error("expected error for missing fixture")
	}
}

func TestParsePrice(t *testing.T) {
	tests := map[string]float64{
		`"449.00"`: 449,
		`"899,00"`: 899,
		`279.99`:   279.99,
		`null`:     0,
		`"n/a"`:    0,
	}
	for raw, want := range tests {
		if got := parsePrice(json.RawMessage(raw)); got != want {
			t.Errorf("parsePrice(%s)=%v, want %v", raw, got, want)
		}
	}
}

func TestPostingsHandler_AllPostings(t *testing.T) {
	fixture := loadTestFixture(t)
	code, resp := getPostings(t, postingsHandler(testLogger(), fixture, 0), "?limit=50")

	if code != http.StatusOK {
		t.Fatalf("status=%d, want %d", code, http.StatusOK)
	}
	if len(resp.Postings) != len(fixture) {
		t.Errorf("postings=%d, want %d", len(resp.Postings), len(fixture))
	}
	if resp.MorePostingsAvailable {
		t.Error("expected morePostingsAvailable=false")
	}
}

func TestPostingsHandler_TextFilter(t *testing.T) {
	fixture := loadTestFixture(t)
	_, resp := getPostings(t, postingsHandler(testLogger(), fixture, 0), "?text=LAPTOP")

	if len(resp.Postings) != 3 {
		t.Fatalf("postings=%d, want 3", len(resp.Postings))
	}
	for _, raw := range resp.Postings {
		var p posting
		_ = json.Unmarshal(raw, &p)
		if !strings.Contains(strings.ToLower(p.Name), "laptop") {
			t.Errorf("name %q does not contain laptop", p.Name)
		}
	}
}

func TestPostingsHandler_PriceMax(t *testing.T) {
	fixture := loadTestFixture(t)
	_, resp := getPostings(t, postingsHandler(testLogger(), fixture, 0), "?text=laptop&priceMax=500")

	if len(resp.Postings) != 2 {
		t.Fatalf("postings=%d, want 2", len(resp.Postings))
	}
	for _, raw := range resp.Postings {
		var p posting
		_ = json.Unmarshal(raw, &p)
		if parsePrice(p.Price) > 500 {
			t.Errorf("%q costs %s, above priceMax", p.Name, p.Price)
		}
	}
}

func TestPostingsHandler_Pagination(t *testing.T) {
	fixture := loadTestFixture(t)
	handler := postingsHandler(testLogger(), fixture, 0)

	_, first := getPostings(t, handler, "?limit=4&offset=0")
	if len(first.Postings) != 4 {
		t.Errorf("postings=%d, want 4", len(first.Postings))
	}
	if !first.MorePostingsAvailable {
		t.Error("expected morePostingsAvailable on first page")
	}

	_, rest := getPostings(t, handler, "?limit=4&offset=4")
	if len(rest.Postings) != len(fixture)-4 {
		t.Errorf("postings=%d, want %d", len(rest.Postings), len(fixture)-4)
	}
	if rest.MorePostingsAvailable {
		t.Error("expected no more postings on last page")
	}
}

func TestPostingsHandler_NoResults(t *testing.T) {
	fixture := loadTestFixture(t)
	_, resp := getPostings(t, postingsHandler(testLogger(), fixture, 0), "?text=nonexistent_xyz_product")

	if resp.Postings == nil {
		t.Error("expected empty array, got nil")
	}
	if len(resp.Postings) != 0 {
		t.Errorf("postings=%d, want 0", len(resp.Postings))
	}
}

func TestPostingsHandler_FailStatus(t *testing.T) {
	code, _ := getPostings(t, postingsHandler(testLogger(), loadTestFixture(t), http.StatusServiceUnavailable), "")
	if code != http.StatusServiceUnavailable {
		t.Errorf("status=%d, want %d", code, http.StatusServiceUnavailable)
	}
}

func TestPostingsHandler_ServesWatcherClient(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{country}/data/fundgrube/api/postings", postingsHandler(testLogger(), loadTestFixture(t), 0))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := fundgrube.Store{Name: "mock", BaseURL: srv.URL + "/de/data/fundgrube"}
	client := fundgrube.NewHTTPClient(store, fundgrube.WithLogger(testLogger()))

	priceMax := 300.0
	page, err := client.Postings(context.Background(), fundgrube.SearchRequest{
		Text:     "switch",
		PriceMax: &priceMax,
		Limit:    10,
	})
	if err != nil {
		t.Fatalf("Postings: %v", err)
	}
	if len(page.Postings) != 2 {
		t.Fatalf("postings=%d, want 2", len(page.Postings))
	}

	items := fundgrube.ToItems(store, page.Postings)
	if items[0].ID == "" || items[0].Price == 0 {
		t.Errorf("unexpected item %+v", items[0])
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
