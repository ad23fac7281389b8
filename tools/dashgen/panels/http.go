package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

const httpDuration = "fundgrube_http_request_duration_seconds"

// RequestRate returns the API request rate, in total and per route.
func RequestRate() *timeseries.PanelBuilder {
	return series("Request Rate", "API requests per second; probes and scrapes excluded", TSWidth).
		WithTarget(PromQuery(`fundgrube:http_requests:rate5m`, "total", "A")).
		WithTarget(PromQuery(
			`sum by (path) (rate(fundgrube_http_requests_total`+jobSelector()+`[5m]))`,
			"{{path}}",
			"B",
		)).
		Unit("reqps").
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic())
}

// LatencyPercentiles returns p50, p95, and p99 API latency.
func LatencyPercentiles() *timeseries.PanelBuilder {
	return series("Latency Percentiles", "API request duration percentiles", TSWidth).
		WithTarget(PromQuery(quantile(0.5, httpDuration), "p50", "A")).
		WithTarget(PromQuery(quantile(0.95, httpDuration), "p95", "B")).
		WithTarget(PromQuery(quantile(0.99, httpDuration), "p99", "C")).
		Unit("s").
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic())
}

// ErrorRate returns the 5xx share of API requests in percent.
func ErrorRate() *timeseries.PanelBuilder {
	return series("Error Rate %", "HTTP 5xx responses as percentage of API requests", TSWidth).
		WithTarget(PromQuery(
			`fundgrube:http_errors:rate5m / fundgrube:http_requests:rate5m * 100`,
			"error %", "A",
		)).
		Unit("percent").
		Thresholds(ThresholdsGreenYellowRed(1, 5)).
		ColorScheme(ColorSchemeThresholds())
}

// PanicsByRoute returns recovered handler panics per hour by route.
func PanicsByRoute() *timeseries.PanelBuilder {
	return series("Handler Panics / h", "Panics recovered by the API middleware", TSWidth).
		WithTarget(PromQuery(
			`sum by (route) (increase(fundgrube_http_panics_total`+jobSelector()+`[1h]))`,
			"{{route}}",
			"A",
		)).
		Thresholds(ThresholdsGreenYellowRed(1, 5)).
		ColorScheme(ColorSchemeThresholds())
}
