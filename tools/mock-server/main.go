// Package main implements a mock Fundgrube postings server for local
// development. It serves canned postings from a JSON fixture so the watcher
// can be run against it without hitting the real store endpoints:
//
//	go run ./tools/mock-server -port 8089
//	stores: [{name: mock, base_url: http://localhost:8089/de/data/fundgrube}]
package main

import (
	_ "embed"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

//go:embed testdata/postings.json
var defaultFixture []byte

type postingsResponse struct {
	Postings              []json.RawMessage `json:"postings"`
	MorePostingsAvailable bool              `json:"morePostingsAvailable"`
}

// posting holds the fields the mock filters on. Prices may be strings with a
// decimal comma, like the real API sends them.
type posting struct {
	Name  string          `json:"name"`
	Price json.RawMessage `json:"price"`
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	fixtureFile := flag.String("fixture", "", "path to a postings fixture (default: embedded)")
	failStatus := flag.Int("fail-status", 0, "answer every postings request with this HTTP status")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	fixture, err := loadFixture(*fixtureFile)
	if err != nil {
		logger.Error("failed to load fixture", "path", *fixtureFile, "error", err)
		os.Exit(1)
	}
	logger.Info("loaded fixture", "postings", len(fixture))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{country}/data/fundgrube/api/postings", postingsHandler(logger, fixture, *failStatus))

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock Fundgrube server", "addr", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func loadFixture(path string) ([]json.RawMessage, error) {
	data := defaultFixture
	if path != "" {
		var err error
		data, err = os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
		if err != nil {
			return nil, fmt.Errorf("reading fixture: %w", err)
		}
	}
	var resp postingsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return resp.Postings, nil
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

// parsePrice reads a JSON number or numeric string. Unparseable prices are
// reported as zero.
func parsePrice(raw json.RawMessage) float64 {
	s := strings.Trim(string(raw), `"`)
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func postingsHandler(logger *slog.Logger, fixture []json.RawMessage, failStatus int) http.HandlerFunc {
	type indexedPosting struct {
		raw   json.RawMessage
		name  string
		price float64
	}
	postings := make([]indexedPosting, 0, len(fixture))
	for _, raw := range fixture {
		var p posting
		//nolint:errcheck,gosec // fixture data is trusted; field extraction is best-effort
		json.Unmarshal(raw, &p)
		postings = append(postings, indexedPosting{
			raw:   raw,
			name:  strings.ToLower(p.Name),
			price: parsePrice(p.Price),
		})
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if failStatus != 0 {
			http.Error(w, http.StatusText(failStatus), failStatus)
			logger.Warn("postings request failed on purpose", "status", failStatus)
			return
		}

		query := r.URL.Query()
		text := strings.ToLower(query.Get("text"))

		limit := 32
		if v, err := strconv.Atoi(query.Get("limit")); err == nil && v > 0 {
			limit = v
		}
		offset := 0
		if v, err := strconv.Atoi(query.Get("offset")); err == nil && v >= 0 {
			offset = v
		}
		priceMax := 0.0
		if v, err := strconv.ParseFloat(query.Get("priceMax"), 64); err == nil && v > 0 {
			priceMax = v
		}

		var matched []json.RawMessage
		for _, p := range postings {
			if text != "" && !strings.Contains(p.name, text) {
				continue
			}
			if priceMax > 0 && p.price > priceMax {
				continue
			}
			matched = append(matched, p.raw)
		}

		total := len(matched)
		if offset >= len(matched) {
			matched = nil
		} else {
			end := min(offset+limit, len(matched))
			matched = matched[offset:end]
		}

		resp := postingsResponse{
			Postings:              matched,
			MorePostingsAvailable: offset+limit < total,
		}
		if resp.Postings == nil {
			resp.Postings = []json.RawMessage{}
		}

		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
		json.NewEncoder(w).Encode(resp)
		logger.Info("postings",
			"country", r.PathValue("country"),
			"text", text,
			"matched", total,
			"returned", len(matched),
			"offset", offset,
			"limit", limit,
		)
	}
}
