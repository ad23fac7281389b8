package rules

// RecordingRules returns a PrometheusRule CR containing pre-computed rate
// expressions used by dashboards and alert rules.
func RecordingRules() PrometheusRule {
	return newPrometheusRule("fundgrube-recording-rules", RuleGroup{
		Name: "fundgrube-recording",
		Rules: []Rule{
			{
				Record: "fundgrube:http_requests:rate5m",
				Expr:   `sum(rate(fundgrube_http_requests_total[5m]))`,
			},
			{
				Record: "fundgrube:http_errors:rate5m",
				Expr:   `sum(rate(fundgrube_http_requests_total{status=~"5.."}[5m]))`,
			},
			{
				Record: "fundgrube:fetch_requests:rate5m",
				Expr:   `sum(rate(fundgrube_fetch_requests_total[5m])) by (store)`,
			},
			{
				Record: "fundgrube:fetch_errors:rate5m",
				Expr:   `sum(rate(fundgrube_fetch_errors_total[5m])) by (store)`,
			},
			{
				Record: "fundgrube:new_matches:rate5m",
				Expr:   `rate(fundgrube_new_matches_total[5m])`,
			},
			{
				Record: "fundgrube:notifications_sent:rate5m",
				Expr:   `sum(rate(fundgrube_notifications_sent_total[5m])) by (kind)`,
			},
		},
	})
}
