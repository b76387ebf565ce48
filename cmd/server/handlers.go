package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sevkunovoleksandr/librosa-api/pkg/analyzer"
	"github.com/sevkunovoleksandr/librosa-api/pkg/analyzer/audio"
	"github.com/sevkunovoleksandr/librosa-api/pkg/logger"
	"github.com/sevkunovoleksandr/librosa-api/pkg/models"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service analyzer.Service
	config  *ServerConfig
	log     analyzer.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	DBPath         string
	TempDir        string
	SampleRate     int
	AllowedOrigins []string
}

// NewServer creates a new server instance
func NewServer(service analyzer.Service, config *ServerConfig) *Server {
	return &Server{
		service: service,
		config:  config,
		log:     logger.GetLogger(),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "Librosa API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":         "GET /health",
			"metrics":        "GET /api/health/metrics",
			"analyze":        "POST /api/analyze",
			"analyzeYouTube": "POST /api/analyze/youtube",
			"listAnalyses":   "GET /api/analyses",
			"getAnalysis":    "GET /api/analyses/{id}",
			"deleteAnalysis": "DELETE /api/analyses/{id}",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	analyses, err := s.service.ListAnalyses()
	if err != nil {
		s.log.Errorf("Failed to get analysis count: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}

	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:           "healthy",
		DatabasePath:     s.config.DBPath,
		AnalysisCount:    int64(len(analyses)),
		SampleRate:       s.config.SampleRate,
		DownbeatsEnabled: s.service.DownbeatCapable(),
	})
}

// handleAnalyzeFile handles POST /api/analyze (multipart file upload)
func (s *Server) handleAnalyzeFile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes+(1<<20))

	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		s.log.Errorf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		s.log.Errorf("Failed to get audio file: %v", err)
		s.respondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadBytes+1))
	if err != nil {
		s.log.Errorf("Failed to read upload: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to read uploaded file")
		return
	}
	if len(data) > MaxUploadBytes {
		s.respondError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("audio file exceeds %d MB limit", MaxUploadBytes>>20))
		return
	}
	if len(data) == 0 {
		s.respondError(w, http.StatusBadRequest, "audio file is empty")
		return
	}

	s.log.Infof("Analyzing uploaded file: %s (%d bytes)", header.Filename, len(data))
	report, err := s.service.AnalyzeBuffer(ctx, data, header.Filename)
	if err != nil {
		s.respondAnalysisError(w, err)
		return
	}

	// Optional form overrides for the returned labels
	if v := r.FormValue("song_label"); v != "" {
		report.SongLabel = v
	}
	if v := r.FormValue("artist"); v != "" {
		report.Artist = v
	}
	if v := r.FormValue("genre"); v != "" {
		report.Genre = v
	}

	s.log.Infof("Analysis complete: %s tempo=%.1f beats=%d", header.Filename, report.Tempo, len(report.BeatTimes))
	s.respondJSON(w, http.StatusOK, report)
}

// handleAnalyzeYouTube handles POST /api/analyze/youtube
func (s *Server) handleAnalyzeYouTube(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	var req AnalyzeYouTubeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.Errorf("Failed to decode request: %v", err)
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.log.Infof("Analyzing YouTube URL: %s", req.YouTubeURL)
	report, err := s.service.AnalyzeYouTube(ctx, req.YouTubeURL)
	if err != nil {
		s.respondAnalysisError(w, err)
		return
	}

	if req.SongLabel != "" {
		report.SongLabel = req.SongLabel
	}
	if req.Artist != "" {
		report.Artist = req.Artist
	}

	s.log.Infof("YouTube analysis complete: %s tempo=%.1f", req.YouTubeURL, report.Tempo)
	s.respondJSON(w, http.StatusOK, report)
}

// respondAnalysisError maps pipeline failures onto HTTP status codes.
// Undecodable input is the client's fault; anything else is ours.
func (s *Server) respondAnalysisError(w http.ResponseWriter, err error) {
	var decodeErr *audio.DecodeError
	if errors.As(err, &decodeErr) {
		s.log.Warnf("Rejecting undecodable audio: %v", err)
		s.respondError(w, http.StatusUnprocessableEntity, decodeErr.Error())
		return
	}
	s.log.Errorf("Analysis failed: %v", err)
	s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("Analysis failed: %v", err))
}

// handleListAnalyses handles GET /api/analyses
func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	analyses, err := s.service.ListAnalyses()
	if err != nil {
		s.log.Errorf("Failed to list analyses: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve analyses")
		return
	}

	dtos := make([]AnalysisDTO, len(analyses))
	for i, a := range analyses {
		dtos[i] = toAnalysisDTO(a)
	}

	s.respondJSON(w, http.StatusOK, ListAnalysesResponse{
		Analyses: dtos,
		Count:    len(dtos),
	})
}

// handleGetAnalysis handles GET /api/analyses/{id}
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := s.service.GetAnalysis(id)
	if err != nil {
		s.log.Warnf("Analysis not found: %s", id)
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("Analysis %s not found", id))
		return
	}

	s.respondJSON(w, http.StatusOK, toAnalysisDTO(*rec))
}

// handleDeleteAnalysis handles DELETE /api/analyses/{id}
func (s *Server) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.service.DeleteAnalysis(id); err != nil {
		s.log.Warnf("Failed to delete analysis %s: %v", id, err)
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("Analysis %s not found", id))
		return
	}

	s.log.Infof("Deleted analysis %s", id)
	s.respondJSON(w, http.StatusOK, DeleteAnalysisResponse{
		Message: "Analysis deleted successfully",
		ID:      id,
	})
}

// handleAnalyses routes requests to /api/analyses
func (s *Server) handleAnalyses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.handleListAnalyses(w, r)
}

// handleAnalysis routes requests to /api/analyses/{id}
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Path[len("/api/analyses/"):]
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "Analysis ID required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetAnalysis(w, r, id)
	case http.MethodDelete:
		s.handleDeleteAnalysis(w, r, id)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleAnalyze routes requests to /api/analyze
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.handleAnalyzeFile(w, r)
}

// handleAnalyzeYouTubeRoute routes requests to /api/analyze/youtube
func (s *Server) handleAnalyzeYouTubeRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.handleAnalyzeYouTube(w, r)
}

func toAnalysisDTO(a models.AnalysisRecord) AnalysisDTO {
	return AnalysisDTO{
		ID:            a.ID,
		SongLabel:     a.SongLabel,
		Artist:        a.Artist,
		Genre:         a.Genre,
		Tempo:         a.Tempo,
		DurationSec:   a.DurationSec,
		BeatCount:     a.BeatCount,
		OnsetCount:    a.OnsetCount,
		DownbeatCount: a.DownbeatCount,
		CreatedAt:     a.CreatedAt.Format(time.RFC3339),
	}
}
