package httpapi

import "net/http"

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	filter, ok := contextFilter(w, r)
	if !ok {
		return
	}
	stats, err := s.stats.Dashboard(r.Context(), filter)
	if err != nil {
		s.respondStoreError(w, err, "stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleUrbanStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats.Urban(r.Context())
	if err != nil {
		s.respondStoreError(w, err, "stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleRuralStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats.Rural(r.Context())
	if err != nil {
		s.respondStoreError(w, err, "stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleIndustrialStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats.Industrial(r.Context())
	if err != nil {
		s.respondStoreError(w, err, "stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	filter, ok := contextFilter(w, r)
	if !ok {
		return
	}
	alerts, err := s.stats.Alerts(r.Context(), filter)
	if err != nil {
		s.respondStoreError(w, err, "alerts")
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}
