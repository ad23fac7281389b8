package rules

// AlertRules returns a PrometheusRule CR containing alert rules for
// fundgrube-watcher operational monitoring.
func AlertRules() PrometheusRule {
	return newPrometheusRule("fundgrube-alerts", RuleGroup{
		Name: "fundgrube-alerts",
		Rules: []Rule{
			{
				Alert: "FundgrubeWatcherDown",
				Expr:  `absent(up{job="fundgrube-watcher"})`,
				For:   "2m",
				Labels: map[string]string{
					"severity": "critical",
				},
				Annotations: map[string]string{
					"summary":     "Fundgrube watcher is down",
					"description": "The fundgrube-watcher job has been absent for more than 2 minutes.",
				},
			},
			{
				Alert: "FundgrubeReadinessDown",
				Expr:  `fundgrube_readyz_up == 0`,
				For:   "2m",
				Labels: map[string]string{
					"severity": "critical",
				},
				Annotations: map[string]string{
					"summary":     "Fundgrube watcher readiness check is failing",
					"description": "The history store is unreachable or no run completed within three intervals, for more than 2 minutes.",
				},
			},
			{
				Alert: "FundgrubeHighErrorRate",
				Expr:  `fundgrube:http_errors:rate5m / fundgrube:http_requests:rate5m > 0.05`,
				For:   "5m",
				Labels: map[string]string{
					"severity": "warning",
				},
				Annotations: map[string]string{
					"summary":     "High HTTP error rate",
					"description": "More than 5% of API requests have returned 5xx for 5 minutes.",
				},
			},
			{
				Alert: "FundgrubeStoreFailing",
				Expr:  `fundgrube:fetch_errors:rate5m > 0`,
				For:   "1h",
				Labels: map[string]string{
					"severity": "warning",
				},
				Annotations: map[string]string{
					"summary":     "A Fundgrube store keeps failing",
					"description": "Fetching postings from {{ $labels.store }} has failed on every run for an hour.",
				},
			},
			{
				Alert: "FundgrubeRunsStalled",
				Expr:  `time() - fundgrube_last_run_timestamp_seconds > 3600`,
				For:   "5m",
				Labels: map[string]string{
					"severity": "warning",
				},
				Annotations: map[string]string{
					"summary":     "No watch run has completed recently",
					"description": "The last completed watch run is more than an hour old.",
				},
			},
			{
				Alert: "FundgrubeNotificationFailures",
				Expr:  `increase(fundgrube_notification_failures_total[5m]) > 0`,
				For:   "1m",
				Labels: map[string]string{
					"severity": "warning",
				},
				Annotations: map[string]string{
					"summary":     "Notification delivery failures detected",
					"description": "One or more match notifications (mail or Discord) have failed to send.",
				},
			},
			{
				Alert: "FundgrubeHandlerPanics",
				Expr:  `increase(fundgrube_http_panics_total[15m]) > 0`,
				Labels: map[string]string{
					"severity": "warning",
				},
				Annotations: map[string]string{
					"summary":     "API handler panicked",
					"description": "The API recovered from a handler panic on route {{ $labels.route }} in the last 15 minutes.",
				},
			},
		},
	})
}
