package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
)

// HealthzStat returns the liveness probe status.
func HealthzStat() *stat.PanelBuilder {
	return upStat("Healthz", "Liveness probe (1 = ok, 0 = failing)", "fundgrube_healthz_up")
}

// ReadyzStat returns the readiness probe status.
func ReadyzStat() *stat.PanelBuilder {
	return upStat("Readyz", "Readiness probe (0 = history store unreachable or runs stale)", "fundgrube_readyz_up")
}

// upStat shows a 0/1 gauge as a red or green tile.
func upStat(title, description, metric string) *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title(title).
		Description(description).
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(metric, "", "A")).
		Thresholds(ThresholdsRedGreen(1)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeNone).
		TextMode(common.BigValueTextModeValue)
}

// LastRunStat returns a stat panel showing time since the last completed run.
func LastRunStat() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Last Run").
		Description("Time since the last completed watch run").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(
			`time() - fundgrube_last_run_timestamp_seconds`+jobSelector(),
			"", "A",
		)).
		Unit("s").
		Thresholds(ThresholdsGreenYellowRed(1800, 3600)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeNone)
}

// UptimeStat returns a stat panel showing process uptime.
func UptimeStat() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Uptime").
		Description("Time since process start").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(
			`time() - process_start_time_seconds`+jobSelector(),
			"", "A",
		)).
		Unit("s").
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemeThresholds()).
		GraphMode(common.BigValueGraphModeNone)
}
