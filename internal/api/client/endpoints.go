package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/donaldgifford/fundgrube-watcher/internal/engine"
	domain "github.com/donaldgifford/fundgrube-watcher/pkg/types"
)

// SeenPage is one page of the notification history.
type SeenPage struct {
	Items  []domain.SeenEntry `json:"items"`
	Total  int                `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

// Rules is the configured rule set of the server.
type Rules struct {
	Rules  []domain.Rule `json:"rules"`
	Stores []string      `json:"stores"`
}

// TriggerRun starts a watch run on the server and waits for its result.
func (c *Client) TriggerRun(ctx context.Context) (*engine.RunResult, error) {
	var res engine.RunResult
	if err := c.post(ctx, "/api/v1/run", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// LastRun returns the most recent run of the server.
func (c *Client) LastRun(ctx context.Context) (*engine.RunResult, error) {
	var res engine.RunResult
	if err := c.get(ctx, "/api/v1/run/last", &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListSeen returns one page of notified items.
func (c *Client) ListSeen(ctx context.Context, limit, offset int) (*SeenPage, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}

	path := "/api/v1/seen"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var page SeenPage
	if err := c.get(ctx, path, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ResetSeen clears the notification history on the server.
func (c *Client) ResetSeen(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.del(ctx, "/api/v1/seen", &resp); err != nil {
		return err
	}
	if resp.Status != "reset" {
		return fmt.Errorf("unexpected reset status %q", resp.Status)
	}
	return nil
}

// ListRules returns the rules the server watches.
func (c *Client) ListRules(ctx context.Context) (*Rules, error) {
	var rules Rules
	if err := c.get(ctx, "/api/v1/rules", &rules); err != nil {
		return nil, err
	}
	return &rules, nil
}
