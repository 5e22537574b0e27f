package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/notAbhisar/aqua-nexus/internal/domain"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (domain.Node, error) {
	var node domain.Node
	var waterLoss, supplyDemand, aquifer, table, recharge sql.NullFloat64
	var lastInspection sql.NullTime
	var thresholdsRaw, limitsRaw []byte
	err := row.Scan(&node.ID, &node.Name, &node.Latitude, &node.Longitude,
		&node.Type, &node.Status, &node.District, &node.PeakHours,
		&waterLoss, &supplyDemand, &aquifer, &table, &recharge,
		&node.SeasonalVariation, &node.FacilityType, &lastInspection,
		&thresholdsRaw, &limitsRaw, &node.CreatedAt, &node.UpdatedAt)
	if err != nil {
		return domain.Node{}, err
	}

	node.WaterLossPct = floatPtr(waterLoss)
	node.SupplyDemandRatio = floatPtr(supplyDemand)
	node.AquiferDepthM = floatPtr(aquifer)
	node.WaterTableM = floatPtr(table)
	node.RechargeRate = floatPtr(recharge)
	node.LastInspection = timePtr(lastInspection)

	if node.AlertThresholds, err = unmarshalMap(thresholdsRaw); err != nil {
		return domain.Node{}, fmt.Errorf("scan node thresholds: %w", err)
	}
	if node.RegulatoryLimits, err = unmarshalMap(limitsRaw); err != nil {
		return domain.Node{}, fmt.Errorf("scan node limits: %w", err)
	}
	return node, nil
}

func scanTelemetry(row rowScanner) (domain.Telemetry, error) {
	var sample domain.Telemetry
	var flow, pressure, ph, temp, turbidity sql.NullFloat64
	var aquifer, table, recharge sql.NullFloat64
	err := row.Scan(&sample.ID, &sample.NodeID, &sample.Timestamp,
		&flow, &pressure, &ph, &temp, &turbidity,
		&aquifer, &table, &recharge, &sample.Quality)
	if err != nil {
		return domain.Telemetry{}, err
	}

	sample.FlowRate = floatPtr(flow)
	sample.Pressure = floatPtr(pressure)
	sample.PHLevel = floatPtr(ph)
	sample.Temperature = floatPtr(temp)
	sample.Turbidity = floatPtr(turbidity)
	sample.AquiferDepthM = floatPtr(aquifer)
	sample.WaterTableM = floatPtr(table)
	sample.RechargeRate = floatPtr(recharge)
	return sample, nil
}

func collectTelemetry(rows *sql.Rows) ([]domain.Telemetry, error) {
	var samples []domain.Telemetry
	for rows.Next() {
		sample, err := scanTelemetry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan telemetry: %w", err)
		}
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}

func scanReport(row rowScanner) (domain.Report, error) {
	var report domain.Report
	var resolvedAt sql.NullTime
	err := row.Scan(&report.ID, &report.Latitude, &report.Longitude,
		&report.Description, &report.Category, &report.PhotoURL, &report.Status,
		&report.ReporterName, &report.ReporterContact,
		&report.CreatedAt, &report.UpdatedAt, &resolvedAt)
	if err != nil {
		return domain.Report{}, err
	}
	report.ResolvedAt = timePtr(resolvedAt)
	return report, nil
}

func scanViolation(row rowScanner) (domain.ComplianceViolation, error) {
	var v domain.ComplianceViolation
	var resolvedDate sql.NullTime
	err := row.Scan(&v.ID, &v.NodeID, &v.ViolationDate, &v.Parameter,
		&v.MeasuredValue, &v.LimitValue, &v.Severity, &v.Resolved,
		&resolvedDate, &v.CreatedAt)
	if err != nil {
		return domain.ComplianceViolation{}, err
	}
	v.ResolvedDate = timePtr(resolvedDate)
	return v, nil
}

func collectViolations(rows *sql.Rows) ([]domain.ComplianceViolation, error) {
	var violations []domain.ComplianceViolation
	for rows.Next() {
		v, err := scanViolation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan violation: %w", err)
		}
		violations = append(violations, v)
	}
	return violations, rows.Err()
}

// --- null conversions ---

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func marshalMap(m map[string]float64) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func unmarshalMap(data []byte) (map[string]float64, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
