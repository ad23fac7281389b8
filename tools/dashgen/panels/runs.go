package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// RunOutcomes returns a timeseries panel showing runs per hour by outcome.
func RunOutcomes() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Runs / h").
		Description("Completed watch runs per hour by outcome").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(ThirdWidth).
		WithTarget(PromQuery(
			`sum(increase(fundgrube_runs_total`+jobSelector()+`[1h])) by (outcome)`,
			"{{outcome}}", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("sum")).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleBars)
}

// NewMatchesRate returns a timeseries panel showing newly matched items per
// hour.
func NewMatchesRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("New Matches / h").
		Description("Items matching a rule that were not seen before").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(ThirdWidth).
		WithTarget(PromQuery(`fundgrube:new_matches:rate5m * 3600`, "new/h", "A")).
		WithTarget(PromQuery(
			`rate(fundgrube_matches_total`+jobSelector()+`[5m]) * 3600`,
			"matched/h", "B",
		)).
		FillOpacity(10).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// SeenItems returns a stat panel showing the size of the notification
// history.
func SeenItems() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Seen Items").
		Description("Item ids in the notification history").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(ThirdWidth).
		WithTarget(PromQuery(`fundgrube_seen_items`+jobSelector(), "", "A")).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemeThresholds()).
		GraphMode(common.BigValueGraphModeArea)
}
