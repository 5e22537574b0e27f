package domain

import "time"

// waterLossScale converts the turbidity proxy into a displayed "water loss
// percentage". This is an explicit placeholder, not a real loss measurement.
const waterLossScale = 10

// DistrictStats is the per-district rollup: node count and the average of the
// member nodes' latest flow readings.
type DistrictStats struct {
	Nodes int     `json:"nodes"`
	Flow  float64 `json:"flow"`
}

// FlowTrendPoint is one node's average flow for one calendar month.
type FlowTrendPoint struct {
	Node  string  `json:"node"`
	Month string  `json:"month"`
	Flow  float64 `json:"flow"`
}

// PressureTrendPoint is one node's average pressure for one calendar month.
type PressureTrendPoint struct {
	Node     string  `json:"node"`
	Month    string  `json:"month"`
	Pressure float64 `json:"pressure"`
}

// UrbanNode is a dashboard snapshot of one urban node.
type UrbanNode struct {
	ID       int64      `json:"id"`
	Name     string     `json:"name"`
	District string     `json:"district"`
	Status   NodeStatus `json:"status"`
	Latest   *Telemetry `json:"latest_telemetry"`
}

// UrbanStats is the urban-context rollup.
type UrbanStats struct {
	TotalNodes          int                      `json:"total_nodes"`
	AvgFlowRate         float64                  `json:"avg_flow_rate"`
	AvgPressure         float64                  `json:"avg_pressure"`
	WaterLossPercentage float64                  `json:"water_loss_percentage"`
	Districts           map[string]DistrictStats `json:"districts"`
	FlowTrends          []FlowTrendPoint         `json:"flow_trends"`
	PressureTrends      []PressureTrendPoint     `json:"pressure_trends"`
	Nodes               []UrbanNode              `json:"nodes"`
}

// AggregateUrban computes the urban dashboard statistics from a node snapshot,
// the trailing telemetry window (up to 365 days, used for monthly trends; the
// most recent 24 hours of it feed the averages), and the latest reading per
// node. Non-urban nodes in the input are ignored.
func AggregateUrban(nodes []Node, window []Telemetry, latest map[int64]*Telemetry) UrbanStats {
	urban := filterNodesByType(nodes, NodeTypeUrban)
	ids := nodeIDSet(urban)
	now := clock.Now().UTC()

	recent := samplesWithin(window, ids, now.Add(-24*time.Hour))
	avgTurbidity := meanOrZero(recent, turbidityOf)

	districts := make(map[string]DistrictStats)
	for _, n := range urban {
		district := n.District
		if district == "" {
			district = "Unknown"
		}
		d := districts[district]
		d.Nodes++
		if s := latest[n.ID]; s != nil && present(s.FlowRate) {
			d.Flow += *s.FlowRate
		}
		districts[district] = d
	}
	// Average the accumulated latest-flow sum over the district's node count,
	// including nodes that contributed no flow reading.
	for name, d := range districts {
		if d.Nodes > 0 {
			d.Flow /= float64(d.Nodes)
			districts[name] = d
		}
	}

	var flowTrends []FlowTrendPoint
	var pressureTrends []PressureTrendPoint
	yearCutoff := now.Add(-365 * 24 * time.Hour)
	for _, n := range urban {
		nodeSamples := samplesWithin(window, map[int64]struct{}{n.ID: {}}, yearCutoff)
		for _, b := range monthlyMeans(nodeSamples, flowRateOf) {
			if b.Mean != 0 {
				flowTrends = append(flowTrends, FlowTrendPoint{Node: n.Name, Month: b.Label, Flow: b.Mean})
			}
		}
		for _, b := range monthlyMeans(nodeSamples, pressureOf) {
			if b.Mean != 0 {
				pressureTrends = append(pressureTrends, PressureTrendPoint{Node: n.Name, Month: b.Label, Pressure: b.Mean})
			}
		}
	}

	nodeList := make([]UrbanNode, 0, len(urban))
	for _, n := range urban {
		nodeList = append(nodeList, UrbanNode{
			ID:       n.ID,
			Name:     n.Name,
			District: n.District,
			Status:   n.Status,
			Latest:   latest[n.ID],
		})
	}

	return UrbanStats{
		TotalNodes:          len(urban),
		AvgFlowRate:         meanOrZero(recent, flowRateOf),
		AvgPressure:         meanOrZero(recent, pressureOf),
		WaterLossPercentage: avgTurbidity * waterLossScale,
		Districts:           districts,
		FlowTrends:          flowTrends,
		PressureTrends:      pressureTrends,
		Nodes:               nodeList,
	}
}
