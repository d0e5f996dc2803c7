package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"emotionchart/internal/config"
	"emotionchart/internal/models"
	"emotionchart/internal/storage"
)

// dataset loads a source for a request. On failure it answers 502 and returns
// nil; the loader has already logged the cause.
func (s *Server) dataset(w http.ResponseWriter, r *http.Request, source string) *models.Dataset {
	ds, err := s.loadDataset(r.Context(), source)
	if err != nil {
		http.Error(w, "Failed to load emotion data", http.StatusBadGateway)
		return nil
	}
	return ds
}

func writeHTML(w http.ResponseWriter, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(page))
}

// HandleRoot serves the interactive line/dot chart
func (s *Server) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	ds := s.dataset(w, r, s.Config.LineDataSource)
	if ds == nil {
		return
	}
	page, err := s.Reports.LinePage(ds)
	if err != nil {
		s.log.Error("failed to build line page", err, nil)
		http.Error(w, "Failed to build chart", http.StatusInternalServerError)
		return
	}
	writeHTML(w, page)
}

// HandleStreamgraph serves the interactive streamgraph with the chunk slider
func (s *Server) HandleStreamgraph(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	p, err := s.parseChartParams(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ds := s.dataset(w, r, s.Config.DataSource)
	if ds == nil {
		return
	}
	page, err := s.Reports.StreamPage(ds, p.ChunkSize, p.Offset)
	if err != nil {
		s.log.Error("failed to build streamgraph page", err, map[string]interface{}{"chunk_size": p.ChunkSize})
		http.Error(w, "Failed to build chart", http.StatusInternalServerError)
		return
	}
	writeHTML(w, page)
}

// HandleLive serves the page driven by a server-side view over /ws/live
func (s *Server) HandleLive(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	p, err := s.parseChartParams(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	page, err := s.Reports.LivePage(p.ChunkSize)
	if err != nil {
		s.log.Error("failed to build live page", err, nil)
		http.Error(w, "Failed to build page", http.StatusInternalServerError)
		return
	}
	writeHTML(w, page)
}

// HandleTransitions serves the exploratory random streams page
func (s *Server) HandleTransitions(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	page, err := s.Reports.TransitionsPage()
	if err != nil {
		s.log.Error("failed to build transitions page", err, nil)
		http.Error(w, "Failed to build page", http.StatusInternalServerError)
		return
	}
	writeHTML(w, page)
}

// HandleHealth provides health check endpoint
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	health := map[string]interface{}{
		"status":    "healthy",
		"version":   config.GetVersion(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks": map[string]string{
			"storage": string(s.DeploymentMode),
			"config":  "ok",
		},
	}
	s.writeJSON(w, http.StatusOK, health)
}

// HandleExport renders every artifact of the configured corpus and stores the
// bundle. Only one export runs at a time.
func (s *Server) HandleExport(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	if !s.exportMutex.TryLock() {
		s.log.Warn("export already in progress, rejecting request", nil)
		s.writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":   "Export already in progress",
			"message": "Another export is currently running. Please wait for it to complete before starting a new one.",
			"status":  "conflict",
		})
		return
	}
	defer s.exportMutex.Unlock()

	p, err := s.parseChartParams(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ds := s.dataset(w, r, s.Config.DataSource)
	if ds == nil {
		return
	}

	result, err := s.Exporter.Export(r.Context(), ds, reportsOptions(p))
	if err != nil {
		s.log.Error("export failed", err, nil)
		http.Error(w, "Export failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// HandleListExports lists stored exports as a page, or as JSON with
// ?format=json
func (s *Server) HandleListExports(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
		if limit > 100 {
			limit = 100
		}
	}

	exports, err := s.Storage.ListExports(r.Context(), limit)
	if err != nil {
		s.log.Error("failed to list exports", err, nil)
		http.Error(w, "Failed to list exports: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Get("format") == "json" {
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"exports":   exports,
			"count":     len(exports),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	page, err := s.Reports.ExportsPage(exports, "/files/")
	if err != nil {
		s.log.Error("failed to build exports page", err, nil)
		http.Error(w, "Failed to build page", http.StatusInternalServerError)
		return
	}
	writeHTML(w, page)
}

// HandleFileProxy serves stored export files from local storage or GCS
func (s *Server) HandleFileProxy(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	filePath := strings.TrimPrefix(r.URL.Path, "/files/")
	if filePath == "" {
		http.Error(w, "File path required", http.StatusBadRequest)
		return
	}
	// exported pages link their artifacts relative to the bundle folder
	if strings.HasSuffix(filePath, "/") {
		filePath += storage.IndexFile
	}

	data, err := s.Storage.GetFile(r.Context(), filePath)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidPath) {
			http.Error(w, "Invalid file path", http.StatusBadRequest)
			return
		}
		s.log.Warn("file not found", map[string]interface{}{"path": filePath, "error": err.Error()})
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", storage.GetContentType(filePath))
	w.Write(data)
}

// HandleDashboard serves the go-echarts page holding both charts
func (s *Server) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	p, err := s.parseChartParams(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ds := s.dataset(w, r, s.Config.DataSource)
	if ds == nil {
		return
	}
	layers, err := buildLayers(ds, p)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.Charts.RenderDashboard(w, ds.Records, layers); err != nil {
		s.log.Error("failed to render dashboard", err, nil)
		http.Error(w, fmt.Sprintf("Failed to render dashboard: %v", err), http.StatusInternalServerError)
	}
}
