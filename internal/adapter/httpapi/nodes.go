package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/notAbhisar/aqua-nexus/internal/domain"
)

func (s *Server) handleCreateNode(w http.ResponseWriter, r *http.Request) {
	var node domain.Node
	if err := json.NewDecoder(r.Body).Decode(&node); err != nil {
		writeError(w, http.StatusBadRequest, "invalid node payload")
		return
	}
	if node.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !node.Type.Valid() {
		writeError(w, http.StatusBadRequest, "node_type must be urban, rural, or industrial")
		return
	}

	created, err := s.store.CreateNode(r.Context(), node)
	if err != nil {
		s.respondStoreError(w, err, "node")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	node, err := s.store.Node(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err, "node")
		return
	}
	writeJSON(w, http.StatusOK, node)
}

func (s *Server) handleListNodes(w http.ResponseWriter, r *http.Request) {
	filter, ok := contextFilter(w, r)
	if !ok {
		return
	}
	nodes, err := s.store.ListNodes(r.Context(), filter)
	if err != nil {
		s.respondStoreError(w, err, "nodes")
		return
	}
	writeJSON(w, http.StatusOK, nodes)
}

// handleNodesWithTelemetry returns every node paired with its latest reading,
// the snapshot shape the map view consumes.
func (s *Server) handleNodesWithTelemetry(w http.ResponseWriter, r *http.Request) {
	filter, ok := contextFilter(w, r)
	if !ok {
		return
	}
	nodes, err := s.store.ListNodes(r.Context(), filter)
	if err != nil {
		s.respondStoreError(w, err, "nodes")
		return
	}
	latest, err := s.store.LatestTelemetry(r.Context())
	if err != nil {
		s.respondStoreError(w, err, "telemetry")
		return
	}

	readings := make([]domain.NodeReading, 0, len(nodes))
	for _, n := range nodes {
		readings = append(readings, domain.NodeReading{Node: n, Latest: latest[n.ID]})
	}
	writeJSON(w, http.StatusOK, readings)
}

// handleOverrideNodeStatus is the administrative escape hatch: it sets a node
// status directly, bypassing the classifier. The next ingested sample may
// overwrite it.
func (s *Server) handleOverrideNodeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var body struct {
		Status domain.NodeStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if !body.Status.Valid() {
		writeError(w, http.StatusBadRequest, "status must be normal, warning, critical, or offline")
		return
	}

	if err := s.store.UpdateNodeStatus(r.Context(), id, body.Status, time.Now().UTC()); err != nil {
		s.respondStoreError(w, err, "node")
		return
	}
	node, err := s.store.Node(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err, "node")
		return
	}
	writeJSON(w, http.StatusOK, node)
}

// pathID extracts the {id} path segment, writing a 400 on garbage.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// contextFilter parses the optional ?context= query parameter.
func contextFilter(w http.ResponseWriter, r *http.Request) (*domain.NodeType, bool) {
	raw := r.URL.Query().Get("context")
	if raw == "" {
		return nil, true
	}
	t := domain.NodeType(raw)
	if !t.Valid() {
		writeError(w, http.StatusBadRequest, "context must be urban, rural, or industrial")
		return nil, false
	}
	return &t, true
}
