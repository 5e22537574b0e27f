// Package postgres persists nodes, telemetry, citizen reports, compliance
// violations, and regulatory limits in PostgreSQL via database/sql and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/notAbhisar/aqua-nexus/internal/domain"
)

// Store wraps a SQL connection pool.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// NewWithDB wraps an existing connection pool. Used by tests.
func NewWithDB(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the tables if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS nodes (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
		longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
		node_type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'normal',
		district TEXT NOT NULL DEFAULT '',
		peak_hours TEXT NOT NULL DEFAULT '',
		water_loss_pct DOUBLE PRECISION,
		supply_demand_ratio DOUBLE PRECISION,
		aquifer_depth_m DOUBLE PRECISION,
		water_table_m DOUBLE PRECISION,
		recharge_rate DOUBLE PRECISION,
		seasonal_variation TEXT NOT NULL DEFAULT '',
		facility_type TEXT NOT NULL DEFAULT '',
		last_inspection_date TIMESTAMPTZ,
		alert_thresholds JSONB,
		regulatory_limits JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS telemetry (
		id BIGSERIAL PRIMARY KEY,
		node_id BIGINT NOT NULL REFERENCES nodes(id),
		ts TIMESTAMPTZ NOT NULL,
		flow_rate DOUBLE PRECISION,
		pressure DOUBLE PRECISION,
		ph_level DOUBLE PRECISION,
		temperature DOUBLE PRECISION,
		turbidity DOUBLE PRECISION,
		aquifer_depth_m DOUBLE PRECISION,
		water_table_m DOUBLE PRECISION,
		recharge_rate DOUBLE PRECISION,
		data_quality_flag TEXT NOT NULL DEFAULT 'valid'
	)`,
	`CREATE INDEX IF NOT EXISTS telemetry_node_ts_idx ON telemetry (node_id, ts DESC)`,
	`CREATE TABLE IF NOT EXISTS reports (
		id UUID PRIMARY KEY,
		latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
		longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
		description TEXT NOT NULL,
		category TEXT NOT NULL,
		photo_url TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		reporter_name TEXT NOT NULL DEFAULT '',
		reporter_contact TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		resolved_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS compliance_violations (
		id BIGSERIAL PRIMARY KEY,
		node_id BIGINT NOT NULL REFERENCES nodes(id),
		violation_date TIMESTAMPTZ NOT NULL,
		parameter TEXT NOT NULL,
		measured_value DOUBLE PRECISION NOT NULL,
		limit_value DOUBLE PRECISION NOT NULL,
		severity TEXT NOT NULL,
		resolved BOOLEAN NOT NULL DEFAULT FALSE,
		resolved_date TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS regulatory_limits (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		facility_type TEXT NOT NULL,
		ph_min DOUBLE PRECISION,
		ph_max DOUBLE PRECISION,
		turbidity_max DOUBLE PRECISION,
		bod_max DOUBLE PRECISION,
		cod_max DOUBLE PRECISION,
		tss_max DOUBLE PRECISION,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// --- nodes ---

const nodeColumns = `id, name, latitude, longitude, node_type, status,
	district, peak_hours, water_loss_pct, supply_demand_ratio,
	aquifer_depth_m, water_table_m, recharge_rate, seasonal_variation,
	facility_type, last_inspection_date, alert_thresholds, regulatory_limits,
	created_at, updated_at`

func (s *Store) CreateNode(ctx context.Context, node domain.Node) (domain.Node, error) {
	if node.Status == "" {
		node.Status = domain.StatusNormal
	}
	thresholds, err := marshalMap(node.AlertThresholds)
	if err != nil {
		return domain.Node{}, fmt.Errorf("create node: %w", err)
	}
	limits, err := marshalMap(node.RegulatoryLimits)
	if err != nil {
		return domain.Node{}, fmt.Errorf("create node: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO nodes (name, latitude, longitude, node_type, status,
			district, peak_hours, water_loss_pct, supply_demand_ratio,
			aquifer_depth_m, water_table_m, recharge_rate, seasonal_variation,
			facility_type, last_inspection_date, alert_thresholds, regulatory_limits)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		RETURNING id, created_at, updated_at`,
		node.Name, node.Latitude, node.Longitude, node.Type, node.Status,
		node.District, node.PeakHours, nullFloat(node.WaterLossPct), nullFloat(node.SupplyDemandRatio),
		nullFloat(node.AquiferDepthM), nullFloat(node.WaterTableM), nullFloat(node.RechargeRate),
		node.SeasonalVariation, node.FacilityType, nullTime(node.LastInspection),
		thresholds, limits,
	)
	if err := row.Scan(&node.ID, &node.CreatedAt, &node.UpdatedAt); err != nil {
		return domain.Node{}, fmt.Errorf("create node: %w", err)
	}
	return node, nil
}

func (s *Store) Node(ctx context.Context, id int64) (domain.Node, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE id = $1`, id)
	node, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Node{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Node{}, fmt.Errorf("get node: %w", err)
	}
	return node, nil
}

func (s *Store) ListNodes(ctx context.Context, typeFilter *domain.NodeType) ([]domain.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes`
	args := []any{}
	if typeFilter != nil {
		query += ` WHERE node_type = $1`
		args = append(args, *typeFilter)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()

	var nodes []domain.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("list nodes: %w", err)
		}
		nodes = append(nodes, node)
	}
	return nodes, rows.Err()
}

func (s *Store) UpdateNodeStatus(ctx context.Context, nodeID int64, status domain.NodeStatus, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE nodes SET status = $1, updated_at = $2 WHERE id = $3`,
		status, at, nodeID)
	if err != nil {
		return fmt.Errorf("update node status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update node status: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// --- telemetry ---

const telemetryColumns = `id, node_id, ts, flow_rate, pressure, ph_level,
	temperature, turbidity, aquifer_depth_m, water_table_m, recharge_rate,
	data_quality_flag`

func (s *Store) InsertTelemetry(ctx context.Context, sample domain.Telemetry) (domain.Telemetry, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO telemetry (node_id, ts, flow_rate, pressure, ph_level,
			temperature, turbidity, aquifer_depth_m, water_table_m,
			recharge_rate, data_quality_flag)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id`,
		sample.NodeID, sample.Timestamp,
		nullFloat(sample.FlowRate), nullFloat(sample.Pressure), nullFloat(sample.PHLevel),
		nullFloat(sample.Temperature), nullFloat(sample.Turbidity),
		nullFloat(sample.AquiferDepthM), nullFloat(sample.WaterTableM), nullFloat(sample.RechargeRate),
		sample.Quality,
	)
	if err := row.Scan(&sample.ID); err != nil {
		return domain.Telemetry{}, fmt.Errorf("insert telemetry: %w", err)
	}
	return sample, nil
}

func (s *Store) LatestTelemetry(ctx context.Context) (map[int64]*domain.Telemetry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT ON (node_id) `+telemetryColumns+`
		FROM telemetry ORDER BY node_id, ts DESC`)
	if err != nil {
		return nil, fmt.Errorf("latest telemetry: %w", err)
	}
	defer rows.Close()

	latest := make(map[int64]*domain.Telemetry)
	for rows.Next() {
		sample, err := scanTelemetry(rows)
		if err != nil {
			return nil, fmt.Errorf("latest telemetry: %w", err)
		}
		latest[sample.NodeID] = &sample
	}
	return latest, rows.Err()
}

func (s *Store) LatestTelemetryForNode(ctx context.Context, nodeID int64) (*domain.Telemetry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+telemetryColumns+` FROM telemetry
		WHERE node_id = $1 ORDER BY ts DESC LIMIT 1`, nodeID)
	sample, err := scanTelemetry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest telemetry for node: %w", err)
	}
	return &sample, nil
}

func (s *Store) TelemetryForNode(ctx context.Context, nodeID int64, limit int) ([]domain.Telemetry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+telemetryColumns+` FROM telemetry
		WHERE node_id = $1 ORDER BY ts DESC LIMIT $2`, nodeID, limit)
	if err != nil {
		return nil, fmt.Errorf("telemetry for node: %w", err)
	}
	defer rows.Close()
	return collectTelemetry(rows)
}

func (s *Store) TelemetryWindow(ctx context.Context, since time.Time) ([]domain.Telemetry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+telemetryColumns+` FROM telemetry
		WHERE ts >= $1 ORDER BY ts`, since)
	if err != nil {
		return nil, fmt.Errorf("telemetry window: %w", err)
	}
	defer rows.Close()
	return collectTelemetry(rows)
}

func (s *Store) TelemetryWindowForNode(ctx context.Context, nodeID int64, since time.Time) ([]domain.Telemetry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+telemetryColumns+` FROM telemetry
		WHERE node_id = $1 AND ts >= $2 ORDER BY ts`, nodeID, since)
	if err != nil {
		return nil, fmt.Errorf("telemetry window for node: %w", err)
	}
	defer rows.Close()
	return collectTelemetry(rows)
}

// --- citizen reports ---

const reportColumns = `id, latitude, longitude, description, category,
	photo_url, status, reporter_name, reporter_contact,
	created_at, updated_at, resolved_at`

func (s *Store) CreateReport(ctx context.Context, report domain.Report) (domain.Report, error) {
	report.ID = uuid.NewString()
	if report.Status == "" {
		report.Status = domain.ReportPending
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO reports (id, latitude, longitude, description, category,
			photo_url, status, reporter_name, reporter_contact)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		report.ID, report.Latitude, report.Longitude, report.Description,
		report.Category, report.PhotoURL, report.Status,
		report.ReporterName, report.ReporterContact,
	)
	if err := row.Scan(&report.CreatedAt, &report.UpdatedAt); err != nil {
		return domain.Report{}, fmt.Errorf("create report: %w", err)
	}
	return report, nil
}

func (s *Store) Report(ctx context.Context, id string) (domain.Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = $1`, id)
	report, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Report{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Report{}, fmt.Errorf("get report: %w", err)
	}
	return report, nil
}

func (s *Store) ListReports(ctx context.Context, status *domain.ReportStatus, category *domain.ReportCategory) ([]domain.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE 1=1`
	args := []any{}
	if status != nil {
		args = append(args, *status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if category != nil {
		args = append(args, *category)
		query += fmt.Sprintf(` AND category = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []domain.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("list reports: %w", err)
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

func (s *Store) UpdateReportStatus(ctx context.Context, id string, status domain.ReportStatus) (domain.Report, error) {
	now := time.Now().UTC()
	var resolvedAt sql.NullTime
	if status == domain.ReportResolved {
		resolvedAt = sql.NullTime{Time: now, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE reports SET status = $1, updated_at = $2,
			resolved_at = COALESCE($3, resolved_at)
		WHERE id = $4`,
		status, now, resolvedAt, id)
	if err != nil {
		return domain.Report{}, fmt.Errorf("update report status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Report{}, fmt.Errorf("update report status: %w", err)
	}
	if n == 0 {
		return domain.Report{}, domain.ErrNotFound
	}
	return s.Report(ctx, id)
}

// --- compliance violations ---

const violationColumns = `id, node_id, violation_date, parameter,
	measured_value, limit_value, severity, resolved, resolved_date, created_at`

func (s *Store) CreateViolation(ctx context.Context, v domain.ComplianceViolation) (domain.ComplianceViolation, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO compliance_violations (node_id, violation_date, parameter,
			measured_value, limit_value, severity)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at`,
		v.NodeID, v.ViolationDate, v.Parameter, v.MeasuredValue, v.LimitValue, v.Severity,
	)
	if err := row.Scan(&v.ID, &v.CreatedAt); err != nil {
		return domain.ComplianceViolation{}, fmt.Errorf("create violation: %w", err)
	}
	return v, nil
}

func (s *Store) ListViolations(ctx context.Context, nodeID *int64, resolved *bool) ([]domain.ComplianceViolation, error) {
	query := `SELECT ` + violationColumns + ` FROM compliance_violations WHERE 1=1`
	args := []any{}
	if nodeID != nil {
		args = append(args, *nodeID)
		query += fmt.Sprintf(` AND node_id = $%d`, len(args))
	}
	if resolved != nil {
		args = append(args, *resolved)
		query += fmt.Sprintf(` AND resolved = $%d`, len(args))
	}
	query += ` ORDER BY violation_date DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list violations: %w", err)
	}
	defer rows.Close()
	return collectViolations(rows)
}

func (s *Store) ResolveViolation(ctx context.Context, id int64) (domain.ComplianceViolation, error) {
	now := time.Now().UTC()
	row := s.db.QueryRowContext(ctx, `
		UPDATE compliance_violations SET resolved = TRUE, resolved_date = $1
		WHERE id = $2
		RETURNING `+violationColumns, now, id)
	v, err := scanViolation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ComplianceViolation{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ComplianceViolation{}, fmt.Errorf("resolve violation: %w", err)
	}
	return v, nil
}

func (s *Store) CriticalViolationsSince(ctx context.Context, since time.Time) ([]domain.ComplianceViolation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+violationColumns+` FROM compliance_violations
		WHERE severity = 'critical' AND resolved = FALSE AND violation_date >= $1
		ORDER BY violation_date DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("critical violations: %w", err)
	}
	defer rows.Close()
	return collectViolations(rows)
}

// --- regulatory limits ---

const limitColumns = `id, name, facility_type, ph_min, ph_max, turbidity_max,
	bod_max, cod_max, tss_max, created_at, updated_at`

func (s *Store) CreateRegulatoryLimit(ctx context.Context, limit domain.RegulatoryLimit) (domain.RegulatoryLimit, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO regulatory_limits (name, facility_type, ph_min, ph_max,
			turbidity_max, bod_max, cod_max, tss_max)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at, updated_at`,
		limit.Name, limit.FacilityType,
		nullFloat(limit.PHMin), nullFloat(limit.PHMax), nullFloat(limit.TurbidityMax),
		nullFloat(limit.BODMax), nullFloat(limit.CODMax), nullFloat(limit.TSSMax),
	)
	if err := row.Scan(&limit.ID, &limit.CreatedAt, &limit.UpdatedAt); err != nil {
		return domain.RegulatoryLimit{}, fmt.Errorf("create regulatory limit: %w", err)
	}
	return limit, nil
}

func (s *Store) ListRegulatoryLimits(ctx context.Context, facility *domain.FacilityType) ([]domain.RegulatoryLimit, error) {
	query := `SELECT ` + limitColumns + ` FROM regulatory_limits`
	args := []any{}
	if facility != nil {
		query += ` WHERE facility_type = $1`
		args = append(args, *facility)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list regulatory limits: %w", err)
	}
	defer rows.Close()

	var limits []domain.RegulatoryLimit
	for rows.Next() {
		var l domain.RegulatoryLimit
		var phMin, phMax, turbidity, bod, cod, tss sql.NullFloat64
		if err := rows.Scan(&l.ID, &l.Name, &l.FacilityType,
			&phMin, &phMax, &turbidity, &bod, &cod, &tss,
			&l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list regulatory limits: %w", err)
		}
		l.PHMin = floatPtr(phMin)
		l.PHMax = floatPtr(phMax)
		l.TurbidityMax = floatPtr(turbidity)
		l.BODMax = floatPtr(bod)
		l.CODMax = floatPtr(cod)
		l.TSSMax = floatPtr(tss)
		limits = append(limits, l)
	}
	return limits, rows.Err()
}
