package domain

// Operational thresholds used by the ingestion-time classifier. These are
// intentionally context-agnostic: the same three rules apply to every node
// type, while the alert generator applies the richer per-context rule sets.
const (
	criticalPressurePSI = 30.0 // below this, supply pressure is critical
	phMin               = 6.0
	phMax               = 9.0
	lowFlowLPS          = 10.0 // below this, flow is a warning
)

// ClassifyReading derives a node's operational status from a single telemetry
// sample. It is a pure function, total over any partially populated sample:
// metrics with no evidence simply leave their rule unfired. First matching
// rule wins.
//
// The nodeType parameter is accepted for interface symmetry with the alert
// generator but does not change the rules applied.
func ClassifyReading(sample Telemetry, _ NodeType) NodeStatus {
	switch {
	case present(sample.Pressure) && *sample.Pressure < criticalPressurePSI:
		return StatusCritical
	case present(sample.PHLevel) && (*sample.PHLevel < phMin || *sample.PHLevel > phMax):
		return StatusCritical
	case present(sample.FlowRate) && *sample.FlowRate < lowFlowLPS:
		return StatusWarning
	default:
		return StatusNormal
	}
}

// ApplyNodeStatus compares a newly classified status against the currently
// persisted one. When they differ it returns the new status and changed=true,
// signalling the caller to persist it with an updated timestamp; otherwise it
// returns the current status unchanged and no write should occur.
func ApplyNodeStatus(current, next NodeStatus) (NodeStatus, bool) {
	if current == next {
		return current, false
	}
	return next, true
}
