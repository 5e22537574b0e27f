package domain

import "time"

// ReportCategory classifies a citizen report.
type ReportCategory string

const (
	CategoryLeak      ReportCategory = "leak"
	CategoryPollution ReportCategory = "pollution"
	CategoryDrought   ReportCategory = "drought"
	CategoryOther     ReportCategory = "other"
)

// ReportStatus tracks a citizen report through triage.
type ReportStatus string

const (
	ReportPending       ReportStatus = "pending"
	ReportInvestigating ReportStatus = "investigating"
	ReportResolved      ReportStatus = "resolved"
	ReportRejected      ReportStatus = "rejected"
)

// Valid reports whether s is a recognized report status.
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportPending, ReportInvestigating, ReportResolved, ReportRejected:
		return true
	}
	return false
}

// Report is a free-form citizen-submitted water issue.
type Report struct {
	ID          string         `json:"id"`
	Latitude    float64        `json:"latitude"`
	Longitude   float64        `json:"longitude"`
	Description string         `json:"description"`
	Category    ReportCategory `json:"category"`
	PhotoURL    string         `json:"photo_url,omitempty"`
	Status      ReportStatus   `json:"status"`

	ReporterName    string `json:"reporter_name,omitempty"`
	ReporterContact string `json:"reporter_contact,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}
