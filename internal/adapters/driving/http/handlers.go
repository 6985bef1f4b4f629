package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// ComponentNotFoundResponse lists the components that do exist
// @Description Component lookup failure with recovery hint
type ComponentNotFoundResponse struct {
	Error     string   `json:"error" example:"component \"Buton\" not found"`
	Available []string `json:"available" example:"Button,Card"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// ReadyResponse reports each dependency check
// @Description Readiness status with per-dependency results
type ReadyResponse struct {
	Status string            `json:"status" example:"ready"`
	Checks map[string]string `json:"checks,omitempty"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Pings every configured backend (redis, postgres, page automation)
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse  "A backend is unreachable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := ReadyResponse{Status: "ready"}
	if len(s.checks) > 0 {
		resp.Checks = make(map[string]string, len(s.checks))
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	for name, check := range s.checks {
		if err := check.Ping(ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "not ready"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	writeJSON(w, status, resp)
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// Index endpoints

type indexRequest struct {
	ProjectPath string `json:"project_path" example:"/srv/app"`
}

// handleIndex godoc
// @Summary      Index a project
// @Description  Walks the project source tree and replaces its component index
// @Tags         Index
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      indexRequest  false  "Project to index (defaults to the configured project)"
// @Success      200      {object}  domain.IndexMetadata
// @Failure      400      {object}  ErrorResponse  "Invalid request body or project path"
// @Failure      403      {object}  ErrorResponse  "Admin access required or project path outside the allowed roots"
// @Failure      409      {object}  ErrorResponse  "Indexing already in progress"
// @Failure      500      {object}  ErrorResponse  "Indexing failed"
// @Router       /api/v1/index [post]
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}
	projectPath, ok := s.projectPath(w, req.ProjectPath)
	if !ok {
		return
	}

	index, err := s.indexService.Index(r.Context(), projectPath)
	if err != nil {
		writeServiceError(w, err, "indexing failed")
		return
	}
	writeJSON(w, http.StatusOK, index.Metadata)
}

// handleGetIndex godoc
// @Summary      Get a project index
// @Description  Returns the loaded component index for a project
// @Tags         Index
// @Produce      json
// @Security     BearerAuth
// @Param        project_path  query     string  false  "Project root"
// @Success      200           {object}  domain.ProjectIndex
// @Failure      404           {object}  ErrorResponse  "Project not indexed"
// @Router       /api/v1/index [get]
func (s *Server) handleGetIndex(w http.ResponseWriter, r *http.Request) {
	projectPath, ok := s.projectPath(w, r.URL.Query().Get("project_path"))
	if !ok {
		return
	}

	index, err := s.indexService.Get(r.Context(), projectPath)
	if err != nil {
		writeServiceError(w, err, "failed to load index")
		return
	}
	writeJSON(w, http.StatusOK, index)
}

// IndexHistoryResponse lists recent indexing runs
// @Description Recent indexing runs, newest first
type IndexHistoryResponse struct {
	Runs []*domain.IndexRun `json:"runs"`
}

// handleIndexHistory godoc
// @Summary      List indexing runs
// @Description  Lists recent indexing runs for a project, newest first
// @Tags         Index
// @Produce      json
// @Security     BearerAuth
// @Param        project_path  query     string  false  "Project root"
// @Param        limit         query     int     false  "Maximum runs"  default(20)
// @Success      200           {object}  IndexHistoryResponse
// @Failure      400           {object}  ErrorResponse  "Invalid limit"
// @Router       /api/v1/index/history [get]
func (s *Server) handleIndexHistory(w http.ResponseWriter, r *http.Request) {
	projectPath, ok := s.projectPath(w, r.URL.Query().Get("project_path"))
	if !ok {
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := s.indexService.History(r.Context(), projectPath, limit)
	if err != nil {
		writeServiceError(w, err, "failed to list index history")
		return
	}
	if runs == nil {
		runs = []*domain.IndexRun{}
	}
	writeJSON(w, http.StatusOK, IndexHistoryResponse{Runs: runs})
}

// Search endpoints

type searchRequest struct {
	ProjectPath string `json:"project_path,omitempty"`
	domain.SearchQuery
}

// SearchResponse wraps ranked components
// @Description Ranked search results
type SearchResponse struct {
	Results []domain.SearchResult `json:"results"`
	Total   int                   `json:"total"`
}

// handleSearch godoc
// @Summary      Search components
// @Description  Ranks indexed components by text, tag, type and usage filters
// @Tags         Search
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      searchRequest  true  "Search query"
// @Success      200      {object}  SearchResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      404      {object}  ErrorResponse  "Project not indexed"
// @Failure      500      {object}  ErrorResponse  "Search failed"
// @Router       /api/v1/search [post]
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	projectPath, ok := s.projectPath(w, req.ProjectPath)
	if !ok {
		return
	}

	results, err := s.searchService.Search(r.Context(), projectPath, req.SearchQuery)
	if err != nil {
		writeServiceError(w, err, "search failed")
		return
	}
	if results == nil {
		results = []domain.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results, Total: len(results)})
}

type similarRequest struct {
	ProjectPath string                `json:"project_path,omitempty"`
	Component   string                `json:"component" example:"Button"`
	Mode        domain.SimilarityMode `json:"mode" example:"semantic"`
	Limit       int                   `json:"limit,omitempty" example:"5"`
}

// SimilarResponse wraps similarity results
// @Description Components ranked by similarity
type SimilarResponse struct {
	Results []domain.SimilarityResult `json:"results"`
}

// handleSimilar godoc
// @Summary      Find similar components
// @Description  Ranks components by semantic, visual or usage similarity to a component id or name
// @Tags         Search
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      similarRequest  true  "Reference component and mode"
// @Success      200      {object}  SimilarResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request or mode"
// @Failure      404      {object}  ComponentNotFoundResponse  "Component not found or project not indexed"
// @Router       /api/v1/similar [post]
func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	var req similarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Component == "" {
		writeError(w, http.StatusBadRequest, "component is required")
		return
	}
	if req.Mode == "" {
		req.Mode = domain.SimilaritySemantic
	}
	projectPath, ok := s.projectPath(w, req.ProjectPath)
	if !ok {
		return
	}

	results, err := s.searchService.FindSimilar(r.Context(), projectPath, req.Component, req.Mode, req.Limit)
	if err != nil {
		writeServiceError(w, err, "similarity search failed")
		return
	}
	if results == nil {
		results = []domain.SimilarityResult{}
	}
	writeJSON(w, http.StatusOK, SimilarResponse{Results: results})
}

// handleUsageGraph godoc
// @Summary      Component usage graph
// @Description  Maps component ids to the pages and components that use them
// @Tags         Search
// @Produce      json
// @Security     BearerAuth
// @Param        project_path  query     string  false  "Project root"
// @Success      200           {object}  domain.UsageGraph
// @Failure      404           {object}  ErrorResponse  "Project not indexed"
// @Router       /api/v1/usage-graph [get]
func (s *Server) handleUsageGraph(w http.ResponseWriter, r *http.Request) {
	projectPath, ok := s.projectPath(w, r.URL.Query().Get("project_path"))
	if !ok {
		return
	}

	graph, err := s.searchService.UsageGraph(r.Context(), projectPath)
	if err != nil {
		writeServiceError(w, err, "failed to build usage graph")
		return
	}
	writeJSON(w, http.StatusOK, graph)
}

// Correlation endpoints

type correlateRequest struct {
	ProjectPath string                 `json:"project_path,omitempty"`
	Elements    []domain.VisualElement `json:"elements"`
	Focus       domain.FocusFilter     `json:"focus,omitempty" example:"all"`
}

// handleCorrelate godoc
// @Summary      Correlate page elements
// @Description  Matches caller-supplied page elements against indexed components
// @Tags         Correlation
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      correlateRequest  true  "Observed elements"
// @Success      200      {object}  domain.CorrelationReport
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Router       /api/v1/correlate [post]
func (s *Server) handleCorrelate(w http.ResponseWriter, r *http.Request) {
	var req correlateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	projectPath, ok := s.projectPath(w, req.ProjectPath)
	if !ok {
		return
	}

	report, err := s.correlationService.Correlate(r.Context(), projectPath, req.Elements, req.Focus)
	if err != nil {
		writeServiceError(w, err, "correlation failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type analyzePageRequest struct {
	ProjectPath string             `json:"project_path,omitempty"`
	URL         string             `json:"url" example:"http://localhost:3000"`
	Focus       domain.FocusFilter `json:"focus,omitempty" example:"button"`
	Viewport    *domain.Viewport   `json:"viewport,omitempty"`
}

// handleAnalyzePage godoc
// @Summary      Analyze a live page
// @Description  Renders the URL, extracts its elements and correlates them with indexed components
// @Tags         Correlation
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      analyzePageRequest  true  "Page to analyze"
// @Success      200      {object}  domain.CorrelationReport
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      503      {object}  ErrorResponse  "Page automation unavailable"
// @Failure      504      {object}  ErrorResponse  "Page automation timeout"
// @Router       /api/v1/analyze/page [post]
func (s *Server) handleAnalyzePage(w http.ResponseWriter, r *http.Request) {
	var req analyzePageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	projectPath, ok := s.projectPath(w, req.ProjectPath)
	if !ok {
		return
	}

	report, err := s.correlationService.AnalyzePage(r.Context(), projectPath, req.URL, req.Focus, req.Viewport)
	if err != nil {
		writeServiceError(w, err, "page analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type analyzeResponsiveRequest struct {
	URL         string              `json:"url" example:"http://localhost:3000"`
	Breakpoints []domain.Breakpoint `json:"breakpoints,omitempty"`
	Selector    string              `json:"selector,omitempty" example:"#checkout"`
}

// handleAnalyzeResponsive godoc
// @Summary      Analyze a page across breakpoints
// @Description  Captures responsive issues at each breakpoint (mobile, tablet, desktop by default)
// @Tags         Correlation
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      analyzeResponsiveRequest  true  "Page and breakpoints"
// @Success      200      {object}  domain.ResponsiveReport
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      503      {object}  ErrorResponse  "Page automation unavailable"
// @Router       /api/v1/analyze/responsive [post]
func (s *Server) handleAnalyzeResponsive(w http.ResponseWriter, r *http.Request) {
	var req analyzeResponsiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	report, err := s.correlationService.AnalyzeResponsive(r.Context(), req.URL, req.Breakpoints, req.Selector)
	if err != nil {
		writeServiceError(w, err, "responsive analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Helper functions

// projectPath falls back to the configured project and rejects an empty result.
// With project roots configured, a requested path must lie under one of them.
func (s *Server) projectPath(w http.ResponseWriter, requested string) (string, bool) {
	if requested == "" {
		if s.defaultProject != "" {
			return s.defaultProject, true
		}
		writeError(w, http.StatusBadRequest, "project_path is required")
		return "", false
	}
	if !s.allowedProject(requested) {
		writeError(w, http.StatusForbidden, "project_path is outside the allowed project roots")
		return "", false
	}
	return requested, true
}

// allowedProject reports whether path is one of the project roots or below one.
// No roots means any path.
func (s *Server) allowedProject(path string) bool {
	if len(s.projectRoots) == 0 {
		return true
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, root := range s.projectRoots {
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// decodeOptionalBody accepts an empty body and leaves v untouched
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeServiceError maps domain errors to status codes.
// Unmapped errors are logged and reported with the fallback message.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	var notFound *domain.ComponentNotFoundError
	switch {
	case errors.As(err, &notFound):
		available := notFound.Available
		if available == nil {
			available = []string{}
		}
		writeJSON(w, http.StatusNotFound, ComponentNotFoundResponse{Error: notFound.Error(), Available: available})
	case errors.Is(err, domain.ErrNotIndexed):
		writeError(w, http.StatusNotFound, "project not indexed: run POST /api/v1/index first")
	case errors.Is(err, domain.ErrComponentNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrIndexingInProgress):
		writeError(w, http.StatusConflict, "indexing already in progress")
	case errors.Is(err, domain.ErrAutomationUnavailable):
		writeError(w, http.StatusServiceUnavailable, "page automation unavailable")
	case errors.Is(err, domain.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, err.Error())
	default:
		slog.Error(fallback, "error", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
