// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/fundgrube-watcher/tools/dashgen/panels"
)

// BuildOverview constructs the fundgrube-watcher overview dashboard with all
// metric rows.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("Fundgrube Watcher").
		Uid("fundgrube-overview").
		Tags([]string{"fundgrube", "fundgrube-watcher"}).
		Refresh("1m").
		Time("now-24h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	// Row 1: Overview.
	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.LastRunStat()).
		WithPanel(panels.UptimeStat()))

	// Row 2: HTTP.
	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()).
		WithPanel(panels.PanicsByRoute()))

	// Row 3: Fundgrube API.
	b.WithRow(dashboard.NewRowBuilder("Fundgrube API").
		WithPanel(panels.FetchRate()).
		WithPanel(panels.FetchErrors()).
		WithPanel(panels.FetchLatency()))

	// Row 4: Runs.
	b.WithRow(dashboard.NewRowBuilder("Runs").
		WithPanel(panels.RunOutcomes()).
		WithPanel(panels.NewMatchesRate()).
		WithPanel(panels.SeenItems()))

	// Row 5: Notifications.
	b.WithRow(dashboard.NewRowBuilder("Notifications").
		WithPanel(panels.NotificationsSent()).
		WithPanel(panels.NotificationLatency()).
		WithPanel(panels.NotificationFailures()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
