package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/notAbhisar/aqua-nexus/internal/domain"
)

// rawSamplePayload is the flat JSON shape sensors publish to the source topic.
// Field names mirror the HTTP ingestion payload.
type rawSamplePayload struct {
	NodeID    int64      `json:"node_id"`
	Timestamp *time.Time `json:"timestamp,omitempty"`

	FlowRate    *float64 `json:"flow_rate,omitempty"`
	Pressure    *float64 `json:"pressure,omitempty"`
	PHLevel     *float64 `json:"ph_level,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Turbidity   *float64 `json:"turbidity,omitempty"`

	AquiferDepthM *float64 `json:"aquifer_depth_m,omitempty"`
	WaterTableM   *float64 `json:"water_table_m,omitempty"`
	RechargeRate  *float64 `json:"recharge_rate,omitempty"`

	Quality domain.DataQualityFlag `json:"data_quality_flag,omitempty"`
}

// ParseRawSample deserializes a raw Kafka message into a telemetry sample.
// A missing payload timestamp falls back to the message timestamp.
func ParseRawSample(raw domain.RawSample) (domain.Telemetry, error) {
	var p rawSamplePayload
	if err := json.Unmarshal(raw.Value, &p); err != nil {
		return domain.Telemetry{}, fmt.Errorf("parse raw sample: %w", err)
	}
	if p.NodeID == 0 {
		return domain.Telemetry{}, fmt.Errorf("parse raw sample: missing node_id")
	}

	ts := raw.Timestamp
	if p.Timestamp != nil {
		ts = *p.Timestamp
	}

	return domain.Telemetry{
		NodeID:        p.NodeID,
		Timestamp:     ts.UTC(),
		FlowRate:      p.FlowRate,
		Pressure:      p.Pressure,
		PHLevel:       p.PHLevel,
		Temperature:   p.Temperature,
		Turbidity:     p.Turbidity,
		AquiferDepthM: p.AquiferDepthM,
		WaterTableM:   p.WaterTableM,
		RechargeRate:  p.RechargeRate,
		Quality:       p.Quality,
	}, nil
}

// SampleTransformer implements Transformer by parsing raw sensor messages.
type SampleTransformer struct {
	logger *slog.Logger
}

// NewTransformer creates a SampleTransformer.
func NewTransformer(logger *slog.Logger) *SampleTransformer {
	return &SampleTransformer{logger: logger}
}

func (t *SampleTransformer) Transform(_ context.Context, raw domain.RawSample) (domain.Telemetry, error) {
	return ParseRawSample(raw)
}
