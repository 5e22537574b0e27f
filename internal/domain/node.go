package domain

import "time"

// NodeType is the fixed monitoring context of a node. It determines which
// metrics and alert thresholds are meaningful for that node.
type NodeType string

const (
	NodeTypeUrban      NodeType = "urban"
	NodeTypeRural      NodeType = "rural"
	NodeTypeIndustrial NodeType = "industrial"
)

// Valid reports whether t is a recognized node type.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeUrban, NodeTypeRural, NodeTypeIndustrial:
		return true
	}
	return false
}

// NodeStatus is the derived operational health of a node. It is always the
// most recent classifier output applied to that node; consumers read it, they
// never recompute it.
type NodeStatus string

const (
	StatusNormal   NodeStatus = "normal"
	StatusWarning  NodeStatus = "warning"
	StatusCritical NodeStatus = "critical"
	StatusOffline  NodeStatus = "offline"
)

// Valid reports whether s is a recognized node status.
func (s NodeStatus) Valid() bool {
	switch s {
	case StatusNormal, StatusWarning, StatusCritical, StatusOffline:
		return true
	}
	return false
}

// FacilityType categorizes industrial nodes for compliance reporting.
type FacilityType string

const (
	FacilityTextile  FacilityType = "textile"
	FacilityPharma   FacilityType = "pharma"
	FacilityFood     FacilityType = "food"
	FacilityChemical FacilityType = "chemical"
	FacilityMetal    FacilityType = "metal"
	FacilityOther    FacilityType = "other"
)

// Node is a registered water-monitoring point. The context-specific fields are
// optional and only populated for the matching node type. AlertThresholds and
// RegulatoryLimits are reserved for a per-node override mechanism; the
// classifier and alert generator currently use hardcoded constants only.
type Node struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Type      NodeType   `json:"node_type"`
	Status    NodeStatus `json:"status"`

	// Urban attributes.
	District          string   `json:"district,omitempty"`
	PeakHours         string   `json:"peak_hours,omitempty"`
	WaterLossPct      *float64 `json:"water_loss_pct,omitempty"`
	SupplyDemandRatio *float64 `json:"supply_demand_ratio,omitempty"`

	// Rural attributes.
	AquiferDepthM     *float64 `json:"aquifer_depth_m,omitempty"`
	WaterTableM       *float64 `json:"water_table_m,omitempty"`
	RechargeRate      *float64 `json:"recharge_rate,omitempty"`
	SeasonalVariation string   `json:"seasonal_variation,omitempty"`

	// Industrial attributes.
	FacilityType   FacilityType `json:"facility_type,omitempty"`
	LastInspection *time.Time   `json:"last_inspection_date,omitempty"`

	AlertThresholds  map[string]float64 `json:"alert_thresholds,omitempty"`
	RegulatoryLimits map[string]float64 `json:"regulatory_limits,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NodeReading pairs a node with its single latest telemetry sample, or nil
// when the node has no telemetry yet. This is the snapshot shape consumed by
// the alert generator and the context aggregators.
type NodeReading struct {
	Node   Node       `json:"node"`
	Latest *Telemetry `json:"latest_telemetry,omitempty"`
}
