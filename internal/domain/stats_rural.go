package domain

import "time"

// DepthTrendPoint is one station's average water table depth for one calendar
// month.
type DepthTrendPoint struct {
	Station string  `json:"station"`
	Month   string  `json:"month"`
	Depth   float64 `json:"depth"`
}

// RechargeTrendPoint is one station's average recharge rate for one calendar
// month.
type RechargeTrendPoint struct {
	Station  string  `json:"station"`
	Month    string  `json:"month"`
	Recharge float64 `json:"recharge"`
}

// RuralStation is a dashboard snapshot of one groundwater station. The
// groundwater fields prefer the latest telemetry and fall back to the node's
// stored attributes only when the station has no telemetry at all.
type RuralStation struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	District      string     `json:"district"`
	AquiferDepthM *float64   `json:"aquifer_depth_m"`
	WaterTableM   *float64   `json:"water_table_m"`
	RechargeRate  *float64   `json:"recharge_rate"`
	Status        NodeStatus `json:"status"`
	Latest        *Telemetry `json:"latest_telemetry"`
}

// RuralStats is the rural-context rollup.
type RuralStats struct {
	TotalStations    int                  `json:"total_stations"`
	AvgAquiferDepthM float64              `json:"avg_aquifer_depth_m"`
	MaxAquiferDepthM float64              `json:"max_aquifer_depth_m"`
	MinAquiferDepthM float64              `json:"min_aquifer_depth_m"`
	AvgRechargeRate  float64              `json:"avg_recharge_rate"`
	WaterTableTrend  string               `json:"water_table_trend"`
	DepthTrends      []DepthTrendPoint    `json:"depth_trends"`
	RechargeTrends   []RechargeTrendPoint `json:"recharge_trends"`
	Stations         []RuralStation       `json:"stations"`
}

// AggregateRural computes the rural dashboard statistics. Aquifer and recharge
// figures average over the trailing 30 days; monthly trends cover the trailing
// 365 days. Non-rural nodes in the input are ignored.
func AggregateRural(nodes []Node, window []Telemetry, latest map[int64]*Telemetry) RuralStats {
	rural := filterNodesByType(nodes, NodeTypeRural)
	ids := nodeIDSet(rural)
	now := clock.Now().UTC()

	recent := samplesWithin(window, ids, now.Add(-30*24*time.Hour))
	minDepth, maxDepth, _ := minMaxOf(recent, aquiferOf)

	var depthTrends []DepthTrendPoint
	var rechargeTrends []RechargeTrendPoint
	yearCutoff := now.Add(-365 * 24 * time.Hour)
	for _, n := range rural {
		stationSamples := samplesWithin(window, map[int64]struct{}{n.ID: {}}, yearCutoff)
		for _, b := range monthlyMeans(stationSamples, waterTableOf) {
			if b.Mean != 0 {
				depthTrends = append(depthTrends, DepthTrendPoint{Station: n.Name, Month: b.Label, Depth: b.Mean})
			}
		}
		for _, b := range monthlyMeans(stationSamples, rechargeOf) {
			if b.Mean != 0 {
				rechargeTrends = append(rechargeTrends, RechargeTrendPoint{Station: n.Name, Month: b.Label, Recharge: b.Mean})
			}
		}
	}

	stations := make([]RuralStation, 0, len(rural))
	for _, n := range rural {
		station := RuralStation{
			ID:       n.ID,
			Name:     n.Name,
			District: n.District,
			Status:   n.Status,
			Latest:   latest[n.ID],
		}
		if s := latest[n.ID]; s != nil {
			station.AquiferDepthM = s.AquiferDepthM
			station.WaterTableM = s.WaterTableM
			station.RechargeRate = s.RechargeRate
		} else {
			station.AquiferDepthM = n.AquiferDepthM
			station.WaterTableM = n.WaterTableM
			station.RechargeRate = n.RechargeRate
		}
		stations = append(stations, station)
	}

	return RuralStats{
		TotalStations:    len(rural),
		AvgAquiferDepthM: meanOrZero(recent, aquiferOf),
		MaxAquiferDepthM: maxDepth,
		MinAquiferDepthM: minDepth,
		AvgRechargeRate:  meanOrZero(recent, rechargeOf),
		// TODO: derive the trend from the monthly depth buckets once the
		// dashboard grows a direction indicator.
		WaterTableTrend: "stable",
		DepthTrends:     depthTrends,
		RechargeTrends:  rechargeTrends,
		Stations:        stations,
	}
}
