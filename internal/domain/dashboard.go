package domain

import "time"

// DashboardStats is the cross-context rollup behind the main dashboard view.
// The averages are nil when the telemetry window is empty so that "no data"
// never reads as "data averaging to zero".
type DashboardStats struct {
	TotalNodes    int `json:"total_nodes"`
	ActiveNodes   int `json:"active_nodes"`
	CriticalNodes int `json:"critical_nodes"`
	WarningNodes  int `json:"warning_nodes"`

	TotalReports    int `json:"total_reports"`
	PendingReports  int `json:"pending_reports"`
	ResolvedReports int `json:"resolved_reports"`

	AvgFlowRate *float64 `json:"avg_flow_rate"`
	AvgPressure *float64 `json:"avg_pressure"`
	AvgPHLevel  *float64 `json:"avg_ph_level"`

	LastUpdated time.Time `json:"last_updated"`
}

// AggregateDashboard computes the dashboard rollup. The optional context
// filter narrows the node counts to one type; report counts and the 24-hour
// telemetry averages always cover whatever window the caller supplies,
// unfiltered.
func AggregateDashboard(nodes []Node, reports []Report, window []Telemetry, contextFilter *NodeType) DashboardStats {
	now := clock.Now().UTC()

	var stats DashboardStats
	for _, n := range nodes {
		if contextFilter != nil && n.Type != *contextFilter {
			continue
		}
		stats.TotalNodes++
		switch n.Status {
		case StatusNormal:
			stats.ActiveNodes++
		case StatusCritical:
			stats.CriticalNodes++
		case StatusWarning:
			stats.WarningNodes++
		}
	}

	stats.TotalReports = len(reports)
	for _, r := range reports {
		switch r.Status {
		case ReportPending:
			stats.PendingReports++
		case ReportResolved:
			stats.ResolvedReports++
		}
	}

	var recent []Telemetry
	cutoff := now.Add(-24 * time.Hour)
	for _, s := range window {
		if !s.Timestamp.UTC().Before(cutoff) {
			recent = append(recent, s)
		}
	}
	stats.AvgFlowRate = nonZeroPtr(meanOf(recent, flowRateOf))
	stats.AvgPressure = nonZeroPtr(meanOf(recent, pressureOf))
	stats.AvgPHLevel = nonZeroPtr(meanOf(recent, phLevelOf))

	stats.LastUpdated = now
	return stats
}

// NodeWindowStats are per-node aggregate readings over a telemetry window.
// Every field is nil when the window holds no evidence for it.
type NodeWindowStats struct {
	AvgFlowRate    *float64 `json:"avg_flow_rate"`
	AvgPressure    *float64 `json:"avg_pressure"`
	AvgPHLevel     *float64 `json:"avg_ph_level"`
	AvgTemperature *float64 `json:"avg_temperature"`
	AvgTurbidity   *float64 `json:"avg_turbidity"`
	MinFlowRate    *float64 `json:"min_flow_rate"`
	MinPressure    *float64 `json:"min_pressure"`
	MaxFlowRate    *float64 `json:"max_flow_rate"`
	MaxPressure    *float64 `json:"max_pressure"`
}

// AggregateNodeWindow computes one node's aggregate statistics over the given
// telemetry window.
func AggregateNodeWindow(window []Telemetry) NodeWindowStats {
	minFlow, maxFlow, flowOK := minMaxOf(window, flowRateOf)
	minPressure, maxPressure, pressureOK := minMaxOf(window, pressureOf)

	return NodeWindowStats{
		AvgFlowRate:    nonZeroPtr(meanOf(window, flowRateOf)),
		AvgPressure:    nonZeroPtr(meanOf(window, pressureOf)),
		AvgPHLevel:     nonZeroPtr(meanOf(window, phLevelOf)),
		AvgTemperature: nonZeroPtr(meanOf(window, temperatureOf)),
		AvgTurbidity:   nonZeroPtr(meanOf(window, turbidityOf)),
		MinFlowRate:    nonZeroPtr(minFlow, flowOK),
		MinPressure:    nonZeroPtr(minPressure, pressureOK),
		MaxFlowRate:    nonZeroPtr(maxFlow, flowOK),
		MaxPressure:    nonZeroPtr(maxPressure, pressureOK),
	}
}
