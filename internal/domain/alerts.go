package domain

import (
	"fmt"
	"time"
)

// Alert severities. Alerts are transient: recomputed on every invocation and
// never persisted.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// Per-context alert thresholds. Deliberately richer than the ingestion
// classifier's three rules; the divergence matches the dashboard's behavior.
const (
	aquiferCriticalM     = 50.0
	aquiferWarningM      = 65.0
	rechargeCriticalRate = 5.0 // mm/month
	phWarnMin            = 6.5
	phWarnMax            = 8.5
	highTemperatureC     = 45.0
	highTurbidityNTU     = 20.0
)

// alertFreshness is how old the latest reading may be before a node is
// excluded from alert evaluation entirely.
const alertFreshness = 24 * time.Hour

// Alert is one threshold breach in a node's latest reading.
type Alert struct {
	ID        string    `json:"id"`
	NodeID    int64     `json:"node_id"`
	NodeName  string    `json:"node_name"`
	NodeType  NodeType  `json:"node_type"`
	Type      string    `json:"type"`
	Severity  string    `json:"severity"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Value     string    `json:"value"`
	Threshold string    `json:"threshold"`
	Timestamp time.Time `json:"timestamp"`
}

// AlertList is the result of one alert scan. Count is the number of distinct
// nodes with at least one alert; AlertViolations is the total number of
// breaches, so a single node can contribute several.
type AlertList struct {
	Alerts          []Alert   `json:"alerts"`
	Count           int       `json:"count"`
	AlertViolations int       `json:"alert_violations"`
	Context         string    `json:"context"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// GenerateAlerts scans each node's latest reading against its context's
// thresholds. Nodes without a reading, with a zero timestamp, or whose reading
// is older than 24 hours are skipped; comparisons happen in UTC so mixed time
// bases cannot produce phantom staleness. An optional context filter restricts
// evaluation to one node type.
func GenerateAlerts(readings []NodeReading, contextFilter *NodeType) AlertList {
	now := clock.Now().UTC()
	cutoff := now.Add(-alertFreshness)

	var alerts []Alert
	nodesWithAlerts := make(map[int64]struct{})

	for _, r := range readings {
		if r.Latest == nil {
			continue
		}
		ts := r.Latest.Timestamp.UTC()
		if ts.IsZero() || ts.Before(cutoff) {
			continue
		}
		if contextFilter != nil && r.Node.Type != *contextFilter {
			continue
		}

		var nodeAlerts []Alert
		switch r.Node.Type {
		case NodeTypeUrban:
			nodeAlerts = urbanAlerts(r.Node, *r.Latest, ts)
		case NodeTypeRural:
			nodeAlerts = ruralAlerts(r.Node, *r.Latest, ts)
		case NodeTypeIndustrial:
			nodeAlerts = industrialAlerts(r.Node, *r.Latest, ts)
		}

		if len(nodeAlerts) > 0 {
			nodesWithAlerts[r.Node.ID] = struct{}{}
			alerts = append(alerts, nodeAlerts...)
		}
	}

	contextLabel := "all"
	if contextFilter != nil {
		contextLabel = string(*contextFilter)
	}

	return AlertList{
		Alerts:          alerts,
		Count:           len(nodesWithAlerts),
		AlertViolations: len(alerts),
		Context:         contextLabel,
		GeneratedAt:     now,
	}
}

func urbanAlerts(node Node, sample Telemetry, ts time.Time) []Alert {
	var alerts []Alert

	if present(sample.Pressure) && *sample.Pressure < criticalPressurePSI {
		alerts = append(alerts, Alert{
			ID:        fmt.Sprintf("%d-pressure", node.ID),
			NodeID:    node.ID,
			NodeName:  node.Name,
			NodeType:  node.Type,
			Type:      "pressure",
			Severity:  SeverityCritical,
			Title:     "Low Pressure Detected",
			Message:   fmt.Sprintf("Water pressure critically low at %s", node.Name),
			Value:     fmt.Sprintf("%.2f PSI", *sample.Pressure),
			Threshold: "30 PSI",
			Timestamp: ts,
		})
	}

	if present(sample.FlowRate) && *sample.FlowRate < lowFlowLPS {
		alerts = append(alerts, Alert{
			ID:        fmt.Sprintf("%d-flow", node.ID),
			NodeID:    node.ID,
			NodeName:  node.Name,
			NodeType:  node.Type,
			Type:      "flow_rate",
			Severity:  SeverityWarning,
			Title:     "Low Flow Rate",
			Message:   fmt.Sprintf("Flow rate below normal at %s", node.Name),
			Value:     fmt.Sprintf("%.2f LPS", *sample.FlowRate),
			Threshold: "10 LPS",
			Timestamp: ts,
		})
	}

	return alerts
}

func ruralAlerts(node Node, sample Telemetry, ts time.Time) []Alert {
	var alerts []Alert

	// Prefer the reading's aquifer depth, falling back to the node's stored
	// attribute when the sensor does not report it.
	aquiferDepth := sample.AquiferDepthM
	if !present(aquiferDepth) {
		aquiferDepth = node.AquiferDepthM
	}
	if present(aquiferDepth) {
		switch {
		case *aquiferDepth < aquiferCriticalM:
			alerts = append(alerts, Alert{
				ID:        fmt.Sprintf("%d-aquifer", node.ID),
				NodeID:    node.ID,
				NodeName:  node.Name,
				NodeType:  node.Type,
				Type:      "aquifer",
				Severity:  SeverityCritical,
				Title:     "Critical Aquifer Depletion",
				Message:   fmt.Sprintf("Aquifer depth critically low at %s", node.Name),
				Value:     fmt.Sprintf("%.1f m", *aquiferDepth),
				Threshold: "50 m",
				Timestamp: ts,
			})
		case *aquiferDepth < aquiferWarningM:
			alerts = append(alerts, Alert{
				ID:        fmt.Sprintf("%d-aquifer", node.ID),
				NodeID:    node.ID,
				NodeName:  node.Name,
				NodeType:  node.Type,
				Type:      "aquifer",
				Severity:  SeverityWarning,
				Title:     "Aquifer Depth Dropping",
				Message:   fmt.Sprintf("Aquifer depth below normal at %s", node.Name),
				Value:     fmt.Sprintf("%.1f m", *aquiferDepth),
				Threshold: "65 m",
				Timestamp: ts,
			})
		}
	}

	rechargeRate := sample.RechargeRate
	if !present(rechargeRate) {
		rechargeRate = node.RechargeRate
	}
	if present(rechargeRate) && *rechargeRate < rechargeCriticalRate {
		alerts = append(alerts, Alert{
			ID:        fmt.Sprintf("%d-recharge", node.ID),
			NodeID:    node.ID,
			NodeName:  node.Name,
			NodeType:  node.Type,
			Type:      "recharge",
			Severity:  SeverityCritical,
			Title:     "Low Recharge Rate",
			Message:   fmt.Sprintf("Groundwater recharge critically low at %s", node.Name),
			Value:     fmt.Sprintf("%.2f mm/month", *rechargeRate),
			Threshold: "5 mm/month",
			Timestamp: ts,
		})
	}

	if present(sample.FlowRate) && *sample.FlowRate < lowFlowLPS {
		alerts = append(alerts, lowFlowAlert(node, *sample.FlowRate, ts))
	}

	return alerts
}

func industrialAlerts(node Node, sample Telemetry, ts time.Time) []Alert {
	var alerts []Alert

	if present(sample.PHLevel) {
		ph := *sample.PHLevel
		switch {
		case ph < phMin || ph > phMax:
			alerts = append(alerts, Alert{
				ID:        fmt.Sprintf("%d-ph", node.ID),
				NodeID:    node.ID,
				NodeName:  node.Name,
				NodeType:  node.Type,
				Type:      "ph",
				Severity:  SeverityCritical,
				Title:     "pH Out of Range",
				Message:   fmt.Sprintf("pH level critically out of range at %s", node.Name),
				Value:     fmt.Sprintf("%.2f", ph),
				Threshold: "6.0-9.0",
				Timestamp: ts,
			})
		case ph < phWarnMin || ph > phWarnMax:
			alerts = append(alerts, Alert{
				ID:        fmt.Sprintf("%d-ph", node.ID),
				NodeID:    node.ID,
				NodeName:  node.Name,
				NodeType:  node.Type,
				Type:      "ph",
				Severity:  SeverityWarning,
				Title:     "pH Near Limits",
				Message:   fmt.Sprintf("pH level approaching limits at %s", node.Name),
				Value:     fmt.Sprintf("%.2f", ph),
				Threshold: "6.5-8.5",
				Timestamp: ts,
			})
		}
	}

	if present(sample.Temperature) && *sample.Temperature > highTemperatureC {
		alerts = append(alerts, Alert{
			ID:        fmt.Sprintf("%d-temp", node.ID),
			NodeID:    node.ID,
			NodeName:  node.Name,
			NodeType:  node.Type,
			Type:      "temperature",
			Severity:  SeverityWarning,
			Title:     "High Temperature",
			Message:   fmt.Sprintf("Water temperature elevated at %s", node.Name),
			Value:     fmt.Sprintf("%.1f°C", *sample.Temperature),
			Threshold: "45°C",
			Timestamp: ts,
		})
	}

	if present(sample.Turbidity) && *sample.Turbidity > highTurbidityNTU {
		alerts = append(alerts, Alert{
			ID:        fmt.Sprintf("%d-turbidity", node.ID),
			NodeID:    node.ID,
			NodeName:  node.Name,
			NodeType:  node.Type,
			Type:      "turbidity",
			Severity:  SeverityWarning,
			Title:     "High Turbidity",
			Message:   fmt.Sprintf("Water turbidity elevated at %s", node.Name),
			Value:     fmt.Sprintf("%.1f NTU", *sample.Turbidity),
			Threshold: "20 NTU",
			Timestamp: ts,
		})
	}

	if present(sample.FlowRate) && *sample.FlowRate < lowFlowLPS {
		alerts = append(alerts, lowFlowAlert(node, *sample.FlowRate, ts))
	}

	return alerts
}

// lowFlowAlert is the shared low-flow warning used by rural and industrial
// contexts. The urban variant differs in type tag, message, and value
// precision, so it is built inline there.
func lowFlowAlert(node Node, flowRate float64, ts time.Time) Alert {
	return Alert{
		ID:        fmt.Sprintf("%d-flow", node.ID),
		NodeID:    node.ID,
		NodeName:  node.Name,
		NodeType:  node.Type,
		Type:      "flow",
		Severity:  SeverityWarning,
		Title:     "Low Flow Rate",
		Message:   fmt.Sprintf("Flow rate below threshold at %s", node.Name),
		Value:     fmt.Sprintf("%.1f LPS", flowRate),
		Threshold: "10 LPS",
		Timestamp: ts,
	}
}
