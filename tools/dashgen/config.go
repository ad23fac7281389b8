package main

import "errors"

// KnownMetrics is the set of metric names exported by fundgrube-watcher
// plus recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"fundgrube_http_request_duration_seconds": true,
	"fundgrube_http_requests_total":           true,
	"fundgrube_http_panics_total":             true,

	// Health metrics.
	"fundgrube_healthz_up": true,
	"fundgrube_readyz_up":  true,

	// Fetch metrics.
	"fundgrube_fetch_requests_total":   true,
	"fundgrube_fetch_duration_seconds": true,
	"fundgrube_fetch_items_total":      true,
	"fundgrube_fetch_retries_total":    true,
	"fundgrube_fetch_errors_total":     true,

	// Run metrics.
	"fundgrube_runs_total":                 true,
	"fundgrube_run_duration_seconds":       true,
	"fundgrube_matches_total":              true,
	"fundgrube_new_matches_total":          true,
	"fundgrube_seen_items":                 true,
	"fundgrube_last_run_timestamp_seconds": true,

	// Notification metrics.
	"fundgrube_notifications_sent_total":      true,
	"fundgrube_notification_duration_seconds": true,
	"fundgrube_notification_failures_total":   true,

	// Recording rules.
	"fundgrube:http_requests:rate5m":      true,
	"fundgrube:http_errors:rate5m":        true,
	"fundgrube:fetch_requests:rate5m":     true,
	"fundgrube:fetch_errors:rate5m":       true,
	"fundgrube:new_matches:rate5m":        true,
	"fundgrube:notifications_sent:rate5m": true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
