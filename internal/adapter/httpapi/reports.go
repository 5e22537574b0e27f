package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/notAbhisar/aqua-nexus/internal/domain"
)

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	var report domain.Report
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		writeError(w, http.StatusBadRequest, "invalid report payload")
		return
	}
	if report.Description == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}
	if report.Category == "" {
		report.Category = domain.CategoryOther
	}

	created, err := s.store.CreateReport(r.Context(), report)
	if err != nil {
		s.respondStoreError(w, err, "report")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	report, err := s.store.Report(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err, "report")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	var status *domain.ReportStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := domain.ReportStatus(raw)
		if !st.Valid() {
			writeError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		status = &st
	}
	var category *domain.ReportCategory
	if raw := r.URL.Query().Get("category"); raw != "" {
		c := domain.ReportCategory(raw)
		category = &c
	}

	reports, err := s.store.ListReports(r.Context(), status, category)
	if err != nil {
		s.respondStoreError(w, err, "reports")
		return
	}
	if reports == nil {
		reports = []domain.Report{}
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handleUpdateReportStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var body struct {
		Status domain.ReportStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if !body.Status.Valid() {
		writeError(w, http.StatusBadRequest, "status must be pending, investigating, resolved, or rejected")
		return
	}

	report, err := s.store.UpdateReportStatus(r.Context(), id, body.Status)
	if err != nil {
		s.respondStoreError(w, err, "report")
		return
	}
	writeJSON(w, http.StatusOK, report)
}
