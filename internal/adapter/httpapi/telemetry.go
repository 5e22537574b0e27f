package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/notAbhisar/aqua-nexus/internal/domain"
)

const defaultTelemetryLimit = 100

func (s *Server) handleIngestTelemetry(w http.ResponseWriter, r *http.Request) {
	var sample domain.Telemetry
	if err := json.NewDecoder(r.Body).Decode(&sample); err != nil {
		writeError(w, http.StatusBadRequest, "invalid telemetry payload")
		return
	}
	if sample.NodeID <= 0 {
		writeError(w, http.StatusBadRequest, "node_id is required")
		return
	}

	result, err := s.ingestor.Ingest(r.Context(), sample)
	if err != nil {
		s.respondStoreError(w, err, "node")
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleNodeTelemetry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := s.store.Node(r.Context(), id); err != nil {
		s.respondStoreError(w, err, "node")
		return
	}

	limit := defaultTelemetryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	samples, err := s.store.TelemetryForNode(r.Context(), id, limit)
	if err != nil {
		s.respondStoreError(w, err, "telemetry")
		return
	}
	if samples == nil {
		samples = []domain.Telemetry{}
	}
	writeJSON(w, http.StatusOK, samples)
}

func (s *Server) handleNodeLatestTelemetry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := s.store.Node(r.Context(), id); err != nil {
		s.respondStoreError(w, err, "node")
		return
	}

	latest, err := s.store.LatestTelemetryForNode(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err, "telemetry")
		return
	}
	if latest == nil {
		writeError(w, http.StatusNotFound, "telemetry not found")
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

func (s *Server) handleNodeTelemetryStats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	hours := 24
	if raw := r.URL.Query().Get("hours"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "hours must be a positive integer")
			return
		}
		hours = n
	}

	nodeStats, err := s.stats.NodeWindow(r.Context(), id, time.Duration(hours)*time.Hour)
	if err != nil {
		s.respondStoreError(w, err, "node")
		return
	}
	writeJSON(w, http.StatusOK, nodeStats)
}
