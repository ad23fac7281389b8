package fundgrube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/donaldgifford/fundgrube-watcher/internal/metrics"
)

const (
	postingsPath     = "/api/postings"
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:131.0) Gecko/20100101 Firefox/131.0"
	maxErrorBody     = 512
)

var tracer = otel.Tracer("github.com/donaldgifford/fundgrube-watcher/internal/fundgrube")

// HTTPClient implements PostingsClient against a store's Fundgrube endpoint.
type HTTPClient struct {
	store       Store
	client      *http.Client
	userAgent   string
	rateLimiter *RateLimiter
	retries     int
	newBackOff  func() backoff.BackOff
	log         *slog.Logger
}

// Option configures the HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		c.client = hc
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		c.client = &http.Client{Timeout: d}
	}
}

// WithUserAgent overrides the browser User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *HTTPClient) {
		c.userAgent = ua
	}
}

// WithRateLimiter injects a rate limiter. When set, every request goes
// through Wait() first.
func WithRateLimiter(r *RateLimiter) Option {
	return func(c *HTTPClient) {
		c.rateLimiter = r
	}
}

// WithRetries enables up to n extra attempts for transport errors, 429 and
// 5xx responses, spaced by exponential backoff. Zero (the default) disables
// retrying.
func WithRetries(n int) Option {
	return func(c *HTTPClient) {
		c.retries = n
	}
}

// WithBackOff overrides the backoff policy used between retries.
func WithBackOff(f func() backoff.BackOff) Option {
	return func(c *HTTPClient) {
		c.newBackOff = f
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *HTTPClient) {
		c.log = l
	}
}

// NewHTTPClient creates a postings client for one store.
func NewHTTPClient(store Store, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		store:     store,
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: defaultUserAgent,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.store.BaseURL = strings.TrimRight(c.store.BaseURL, "/")
	return c
}

// Store returns the store this client queries.
func (c *HTTPClient) Store() Store {
	return c.store
}

// Postings implements PostingsClient.Postings.
func (c *HTTPClient) Postings(ctx context.Context, req SearchRequest) (*PostingsPage, error) {
	if c.retries <= 0 {
		return c.fetch(ctx, req)
	}

	op := func() (*PostingsPage, error) {
		page, err := c.fetch(ctx, req)
		if err != nil && !retryable(err) {
			return nil, backoff.Permanent(err)
		}
		return page, err
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(uint(c.retries)+1),
		backoff.WithNotify(func(err error, wait time.Duration) {
			metrics.FetchRetriesTotal.WithLabelValues(c.store.Name).Inc()
			c.log.Warn("retrying postings request",
				"store", c.store.Name,
				"offset", req.Offset,
				"wait", wait,
				"error", err,
			)
		}),
	)
}

func (c *HTTPClient) fetch(ctx context.Context, req SearchRequest) (page *PostingsPage, err error) {
	ctx, span := tracer.Start(ctx, "fundgrube.postings")
	span.SetAttributes(
		attribute.String("fundgrube.store", c.store.Name),
		attribute.String("fundgrube.text", req.Text),
		attribute.Int("fundgrube.offset", req.Offset),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "postings request failed")
		}
		span.End()
	}()

	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	start := time.Now()
	u := c.buildURL(req)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}

	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "application/json, */*")
	httpReq.Header.Set("Accept-Language", "de-DE,de;q=0.9,en;q=0.5")
	httpReq.Header.Set("Referer", c.store.BaseURL)

	c.log.Debug("requesting postings", "store", c.store.Name, "url", u)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		metrics.FetchRequestsTotal.WithLabelValues(c.store.Name, "error").Inc()
		return nil, fmt.Errorf("executing postings request: %w", err)
	}
	defer resp.Body.Close()

	metrics.FetchRequestsTotal.WithLabelValues(c.store.Name, strconv.Itoa(resp.StatusCode)).Inc()
	metrics.FetchDuration.WithLabelValues(c.store.Name).Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), maxErrorBody)}
	}

	var apiResp postingsAPIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, &ParseError{Err: err}
	}
	if apiResp.Postings == nil && apiResp.MorePostingsAvailable == nil {
		return nil, &ParseError{Err: errors.New("response has no postings field")}
	}

	hasMore := len(apiResp.Postings) >= req.Limit && req.Limit > 0
	if apiResp.MorePostingsAvailable != nil {
		hasMore = *apiResp.MorePostingsAvailable
	}

	return &PostingsPage{
		Postings: apiResp.Postings,
		HasMore:  hasMore,
	}, nil
}

func (c *HTTPClient) buildURL(req SearchRequest) string {
	params := url.Values{}

	limit := req.Limit
	if limit <= 0 {
		limit = 32
	}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(max(req.Offset, 0)))

	orderBy := req.OrderBy
	if orderBy == "" {
		orderBy = "new"
	}
	params.Set("orderBy", orderBy)

	if req.Text != "" {
		params.Set("recentFilter", "text")
		params.Set("text", req.Text)
	}
	if req.PriceMax != nil {
		params.Set("priceMax", strconv.FormatFloat(*req.PriceMax, 'f', -1, 64))
	}

	return c.store.BaseURL + postingsPath + "?" + params.Encode()
}

// retryable reports whether a failed request may succeed when repeated.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	return !IsParseError(err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
