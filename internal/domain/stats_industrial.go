package domain

import "time"

// Compliance score penalties per pH breach in the latest readings.
const (
	criticalPenalty = 10
	warningPenalty  = 5
)

// neutralPH is the reported cohort average when no facility has a pH reading.
const neutralPH = 7.0

// IndustrialFacility is a dashboard snapshot of one industrial node. PHStatus
// is "unknown" when the facility has no pH reading, otherwise the band of its
// latest value.
type IndustrialFacility struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	FacilityType   string     `json:"facility_type"`
	Status         NodeStatus `json:"status"`
	LastInspection *time.Time `json:"last_inspection"`
	PHStatus       string     `json:"ph_status"`
	Latest         *Telemetry `json:"latest_telemetry"`
}

// IndustrialStats is the industrial-context rollup.
type IndustrialStats struct {
	TotalFacilities    int                  `json:"total_facilities"`
	ComplianceScore    int                  `json:"compliance_score"`
	TotalViolations    int                  `json:"total_violations"`
	CriticalViolations int                  `json:"critical_violations"`
	AvgPH              float64              `json:"avg_ph"`
	ViolationsByType   map[string]int       `json:"violations_by_type"`
	Facilities         []IndustrialFacility `json:"facilities"`
}

// classifyPH bands a pH value: critical outside [6.0, 9.0], warning outside
// [6.5, 8.5] but inside the critical band, else normal.
func classifyPH(ph float64) string {
	switch {
	case ph < phMin || ph > phMax:
		return string(StatusCritical)
	case ph < phWarnMin || ph > phWarnMax:
		return string(StatusWarning)
	default:
		return string(StatusNormal)
	}
}

// AggregateIndustrial computes the industrial compliance rollup from each
// facility's latest reading. The compliance score starts at 100 and loses 10
// per critical and 5 per warning pH breach, clamped to [0, 100]. Non-industrial
// nodes in the input are ignored.
func AggregateIndustrial(nodes []Node, latest map[int64]*Telemetry) IndustrialStats {
	industrial := filterNodesByType(nodes, NodeTypeIndustrial)

	var (
		totalViolations    int
		criticalViolations int
		warningViolations  int
		phValues           []float64
	)
	violationsByType := make(map[string]int)
	facilities := make([]IndustrialFacility, 0, len(industrial))

	for _, n := range industrial {
		sample := latest[n.ID]

		// Unlike the threshold rules, a pH of exactly 0 is still a reading
		// here; only a missing metric is excluded.
		var ph *float64
		if sample != nil {
			ph = sample.PHLevel
		}

		phStatus := "unknown"
		if ph != nil {
			phValues = append(phValues, *ph)
			phStatus = classifyPH(*ph)
			switch phStatus {
			case string(StatusCritical):
				criticalViolations++
				totalViolations++
			case string(StatusWarning):
				warningViolations++
				totalViolations++
			}
		}

		facilityType := string(n.FacilityType)
		if facilityType == "" {
			facilityType = "unknown"
		}
		if phStatus == string(StatusWarning) || phStatus == string(StatusCritical) {
			violationsByType[facilityType]++
		}

		facilities = append(facilities, IndustrialFacility{
			ID:             n.ID,
			Name:           n.Name,
			FacilityType:   facilityType,
			Status:         n.Status,
			LastInspection: n.LastInspection,
			PHStatus:       phStatus,
			Latest:         sample,
		})
	}

	score := 100 - criticalViolations*criticalPenalty - warningViolations*warningPenalty
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	avgPH := neutralPH
	if len(phValues) > 0 {
		var sum float64
		for _, v := range phValues {
			sum += v
		}
		avgPH = sum / float64(len(phValues))
	}

	return IndustrialStats{
		TotalFacilities:    len(industrial),
		ComplianceScore:    score,
		TotalViolations:    totalViolations,
		CriticalViolations: criticalViolations,
		AvgPH:              avgPH,
		ViolationsByType:   violationsByType,
		Facilities:         facilities,
	}
}
