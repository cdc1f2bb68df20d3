// Package api serves the detection engine's HTTP surface: manual
// predictions, event history, aggregate stats, model info and health.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"NetSentry/internal/capture"
	"NetSentry/internal/flow"
	"NetSentry/internal/model"
	"NetSentry/internal/pipeline"
	"NetSentry/internal/schema"
	"NetSentry/internal/store"
)

// Server hosts the HTTP API over the engine's live components.
type Server struct {
	srv      *http.Server
	store    *store.MemoryStore
	pipeline *pipeline.Pipeline
	registry *flow.Registry
	sniffer  *capture.Sniffer
	started  time.Time
}

// NewServer wires the routes over the given components. The sniffer is
// optional; when nil the health report omits capture state.
func NewServer(addr string, st *store.MemoryStore, pipe *pipeline.Pipeline, reg *flow.Registry) *Server {
	s := &Server{
		store:    st,
		pipeline: pipe,
		registry: reg,
		started:  time.Now(),
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/predictions/predict-flow", s.predictFlowHandler).Methods("POST")
	r.HandleFunc("/api/predictions/history", s.historyHandler).Methods("GET")
	r.HandleFunc("/api/stats", s.statsHandler).Methods("GET")
	r.HandleFunc("/api/models/info", s.modelsInfoHandler).Methods("GET")
	r.HandleFunc("/api/health", s.healthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	s.srv = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	return s
}

// SetSniffer attaches a live capture sniffer so health can report it.
func (s *Server) SetSniffer(sn *capture.Sniffer) {
	s.sniffer = sn
}

// Start runs the HTTP server in the background.
func (s *Server) Start() {
	go func() {
		log.Printf("API server starting on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v", s.srv.Addr, err)
		}
	}()
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// predictFlowRequest is a manually supplied flow: its identity plus a
// name-to-value feature map keyed by schema column names or their aliases.
type predictFlowRequest struct {
	SrcIP    string             `json:"src_ip"`
	DstIP    string             `json:"dst_ip"`
	SrcPort  uint16             `json:"src_port"`
	DstPort  uint16             `json:"dst_port"`
	Protocol string             `json:"protocol"`
	Features map[string]float64 `json:"features"`
}

func (s *Server) predictFlowHandler(w http.ResponseWriter, r *http.Request) {
	var req predictFlowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("failed to decode request: %v", err), http.StatusBadRequest)
		return
	}

	vector, missing := schema.VectorFromMap(req.Features)
	if len(missing) > 0 {
		log.Printf("predict-flow request missing %d feature(s), substituting zeros (first: %s)", len(missing), missing[0])
	}

	verdict, err := s.pipeline.Classify(vector)
	if err != nil {
		http.Error(w, fmt.Sprintf("classification failed: %v", err), http.StatusInternalServerError)
		return
	}

	event := &model.DetectionEvent{
		Timestamp:          time.Now(),
		SrcIP:              req.SrcIP,
		DstIP:              req.DstIP,
		SrcPort:            req.SrcPort,
		DstPort:            req.DstPort,
		Protocol:           req.Protocol,
		IsAttack:           verdict.IsAttack,
		AttackType:         verdict.AttackType,
		Severity:           model.SeverityFor(verdict),
		BinaryConfidence:   verdict.BinaryConfidence,
		ClassProbabilities: verdict.ClassProbabilities,
	}
	if err := s.store.Emit(event); err != nil {
		log.Printf("Error recording manual prediction: %v", err)
	}

	writeJSON(w, http.StatusOK, event)
}

func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	events := s.store.Recent(limit)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(events),
		"events": events,
	})
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.ComputeStats())
}

func (s *Server) modelsInfoHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pipeline.Info())
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"active_flows":   s.registry.ActiveCount(),
		"stored_events":  s.store.Len(),
	}
	if s.sniffer != nil {
		health["sniffer"] = s.sniffer.Stats()
	}
	writeJSON(w, http.StatusOK, health)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
