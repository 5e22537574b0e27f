package domain

import "time"

// ComplianceViolation records a single parameter breach by an industrial node
// against a limit. Violations are recorded manually (or by an operator tool);
// nothing in the aggregation path creates them automatically. A violation is
// mutable only to flip Resolved with a resolution timestamp.
type ComplianceViolation struct {
	ID            int64     `json:"id"`
	NodeID        int64     `json:"node_id"`
	ViolationDate time.Time `json:"violation_date"`

	Parameter     string  `json:"parameter"` // pH, turbidity, BOD, ...
	MeasuredValue float64 `json:"measured_value"`
	LimitValue    float64 `json:"limit_value"`
	Severity      string  `json:"severity"` // warning or critical

	Resolved     bool       `json:"resolved"`
	ResolvedDate *time.Time `json:"resolved_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// RegulatoryLimit is a static reference row of discharge limits for a facility
// type. Read-only from the engine's perspective.
type RegulatoryLimit struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"` // e.g. "CPCB Schedule VI"
	FacilityType FacilityType `json:"facility_type"`

	PHMin        *float64 `json:"ph_min,omitempty"`
	PHMax        *float64 `json:"ph_max,omitempty"`
	TurbidityMax *float64 `json:"turbidity_max,omitempty"`
	BODMax       *float64 `json:"bod_max,omitempty"` // biological oxygen demand
	CODMax       *float64 `json:"cod_max,omitempty"` // chemical oxygen demand
	TSSMax       *float64 `json:"tss_max,omitempty"` // total suspended solids

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
