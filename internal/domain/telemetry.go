package domain

import (
	"context"
	"time"
)

// DataQualityFlag marks the reliability of a sample. Recorded on ingestion but
// not yet consulted by the classifier.
type DataQualityFlag string

const (
	QualityValid   DataQualityFlag = "valid"
	QualityStale   DataQualityFlag = "stale"   // no update for 24+ hours
	QualityOutlier DataQualityFlag = "outlier" // statistical anomaly
	QualityMissing DataQualityFlag = "missing" // sensor malfunction
)

// Telemetry is one immutable, timestamped set of sensor readings tied to a
// node. Every metric is optional; a nil pointer means the sensor did not
// report that metric.
type Telemetry struct {
	ID        int64     `json:"id"`
	NodeID    int64     `json:"node_id"`
	Timestamp time.Time `json:"timestamp"`

	FlowRate    *float64 `json:"flow_rate,omitempty"`   // liters per second
	Pressure    *float64 `json:"pressure,omitempty"`    // PSI
	PHLevel     *float64 `json:"ph_level,omitempty"`    // pH scale (0-14)
	Temperature *float64 `json:"temperature,omitempty"` // Celsius
	Turbidity   *float64 `json:"turbidity,omitempty"`   // NTU

	// Rural groundwater readings.
	AquiferDepthM *float64 `json:"aquifer_depth_m,omitempty"`
	WaterTableM   *float64 `json:"water_table_m,omitempty"`
	RechargeRate  *float64 `json:"recharge_rate,omitempty"` // mm/month

	Quality DataQualityFlag `json:"data_quality_flag,omitempty"`
}

// RawSample is an unprocessed telemetry message from the source topic.
type RawSample struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// present reports whether an optional metric carries evidence. A nil pointer
// is a metric the sensor never reported; a reading of exactly 0 is treated as
// an off-scale sensor and carries no evidence either, so threshold rules do
// not fire on it.
func present(v *float64) bool {
	return v != nil && *v != 0
}

// fval dereferences an optional metric, returning 0 for nil.
func fval(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
