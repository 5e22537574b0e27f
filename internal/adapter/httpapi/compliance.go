package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/notAbhisar/aqua-nexus/internal/domain"
)

func (s *Server) handleCreateViolation(w http.ResponseWriter, r *http.Request) {
	var v domain.ComplianceViolation
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid violation payload")
		return
	}
	if v.NodeID <= 0 {
		writeError(w, http.StatusBadRequest, "node_id is required")
		return
	}
	if v.Parameter == "" {
		writeError(w, http.StatusBadRequest, "parameter is required")
		return
	}
	if v.Severity != "warning" && v.Severity != "critical" {
		writeError(w, http.StatusBadRequest, "severity must be warning or critical")
		return
	}
	if v.ViolationDate.IsZero() {
		v.ViolationDate = time.Now().UTC()
	}

	created, err := s.store.CreateViolation(r.Context(), v)
	if err != nil {
		s.respondStoreError(w, err, "node")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListViolations(w http.ResponseWriter, r *http.Request) {
	var nodeID *int64
	if raw := r.URL.Query().Get("node_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "node_id must be a positive integer")
			return
		}
		nodeID = &id
	}
	var resolved *bool
	if raw := r.URL.Query().Get("resolved"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "resolved must be true or false")
			return
		}
		resolved = &b
	}

	violations, err := s.store.ListViolations(r.Context(), nodeID, resolved)
	if err != nil {
		s.respondStoreError(w, err, "violations")
		return
	}
	if violations == nil {
		violations = []domain.ComplianceViolation{}
	}
	writeJSON(w, http.StatusOK, violations)
}

func (s *Server) handleResolveViolation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	v, err := s.store.ResolveViolation(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err, "violation")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleCriticalViolations lists unresolved critical violations recorded in
// the trailing window (default 24 hours).
func (s *Server) handleCriticalViolations(w http.ResponseWriter, r *http.Request) {
	hours := 24
	if raw := r.URL.Query().Get("hours"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "hours must be a positive integer")
			return
		}
		hours = n
	}

	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	violations, err := s.store.CriticalViolationsSince(r.Context(), since)
	if err != nil {
		s.respondStoreError(w, err, "violations")
		return
	}
	if violations == nil {
		violations = []domain.ComplianceViolation{}
	}
	writeJSON(w, http.StatusOK, violations)
}

func (s *Server) handleCreateRegulatoryLimit(w http.ResponseWriter, r *http.Request) {
	var limit domain.RegulatoryLimit
	if err := json.NewDecoder(r.Body).Decode(&limit); err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit payload")
		return
	}
	if limit.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	created, err := s.store.CreateRegulatoryLimit(r.Context(), limit)
	if err != nil {
		s.respondStoreError(w, err, "regulatory limit")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListRegulatoryLimits(w http.ResponseWriter, r *http.Request) {
	var facility *domain.FacilityType
	if raw := r.URL.Query().Get("facility_type"); raw != "" {
		f := domain.FacilityType(raw)
		facility = &f
	}

	limits, err := s.store.ListRegulatoryLimits(r.Context(), facility)
	if err != nil {
		s.respondStoreError(w, err, "regulatory limits")
		return
	}
	if limits == nil {
		limits = []domain.RegulatoryLimit{}
	}
	writeJSON(w, http.StatusOK, limits)
}
