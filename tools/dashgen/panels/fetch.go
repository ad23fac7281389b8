package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// FetchRate returns postings requests per second by store.
func FetchRate() *timeseries.PanelBuilder {
	return series("Postings Requests", "Fundgrube postings requests per second by store", ThirdWidth).
		WithTarget(PromQuery(`fundgrube:fetch_requests:rate5m`, "{{store}}", "A")).
		Unit("reqps").
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic())
}

// FetchErrors returns skipped stores per hour.
func FetchErrors() *timeseries.PanelBuilder {
	return series("Store Failures / h", "Stores skipped because fetching failed", ThirdWidth).
		WithTarget(PromQuery(`fundgrube:fetch_errors:rate5m * 3600`, "{{store}}", "A")).
		Thresholds(ThresholdsGreenYellowRed(1, 4)).
		ColorScheme(ColorSchemeThresholds())
}

// FetchLatency returns the p95 postings request duration per store.
func FetchLatency() *timeseries.PanelBuilder {
	return series("Request Duration (p95)", "95th percentile postings request duration by store", ThirdWidth).
		WithTarget(PromQuery(quantile(0.95, "fundgrube_fetch_duration_seconds", "store"), "{{store}}", "A")).
		Unit("s").
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic())
}
