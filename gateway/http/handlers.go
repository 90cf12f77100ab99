package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/aggregation"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/filter"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/graphql"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/history"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/pipeline"
)

// handleQuery runs a natural-language query through the pipeline and returns
// the full result, including the rendered GraphQL query.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	result, err := s.pipeline.Process(r.Context(), req)
	if err != nil {
		s.logger.Error("query processing failed", "error", err)
		s.writeError(w, statusFor(err), sanitizeError(err))
		return
	}

	s.recordTurns(result, req.Text)
	s.writeJSON(w, http.StatusOK, result)
}

// executeRequest is the payload of /api/execute: a ready GraphQL query to
// proxy to Guppy.
type executeRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	data, err := s.composer.Execute(r.Context(), &graphql.Query{
		Query:     req.Query,
		Variables: req.Variables,
	})
	if err != nil {
		s.logger.Error("guppy execution failed", "error", err)
		s.writeError(w, statusFor(err), sanitizeError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"data":`))
	_, _ = w.Write(data)
	_, _ = w.Write([]byte(`}`))
}

// aggregationRequest scopes the aggregation panel: the current cohort filter
// plus the anchor selection, both optional.
type aggregationRequest struct {
	Filter      *filter.GqlFilter `json:"filter,omitempty"`
	AnchorValue string            `json:"anchor_value,omitempty"`
}

// handleAggregations plans per-group histogram queries for the filter panel
// and executes them against Guppy concurrently.
func (s *Server) handleAggregations(w http.ResponseWriter, r *http.Request) {
	if s.builder == nil || len(s.tabs) == 0 {
		s.writeError(w, http.StatusNotFound, "aggregation panel not configured")
		return
	}

	var req aggregationRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	plan := aggregation.Plan(s.anchor, req.AnchorValue, s.tabs, req.Filter)
	queries, err := s.builder.BuildAggregationQueries(plan)
	if err != nil {
		s.logger.Error("aggregation query build failed", "error", err)
		s.writeError(w, statusFor(err), sanitizeError(err))
		return
	}

	results, err := s.composer.ExecuteAggregations(r.Context(), queries)
	if err != nil {
		s.logger.Error("aggregation execution failed", "error", err)
		s.writeError(w, statusFor(err), sanitizeError(err))
		return
	}
	s.writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleSessions(w http.ResponseWriter, _ *http.Request) {
	if s.sessions == nil {
		s.writeError(w, http.StatusNotFound, "session history disabled")
		return
	}
	s.writeJSON(w, http.StatusOK, s.sessions.Sessions())
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		s.writeError(w, http.StatusNotFound, "session history disabled")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	session, err := s.sessions.Get(id)
	if err != nil {
		s.writeError(w, statusFor(err), sanitizeError(err))
		return
	}
	s.writeJSON(w, http.StatusOK, session)
}

// recordTurns appends the exchange to the session history. Failures are
// logged, never surfaced; history is best-effort.
func (s *Server) recordTurns(result *pipeline.Result, text string) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.Record(result.SessionID, history.Turn{
		Role:    history.RoleUser,
		Content: text,
		TraceID: result.TraceID,
	}); err != nil {
		s.logger.Warn("recording user turn failed", "error", err)
		return
	}
	if err := s.sessions.Record(result.SessionID, history.Turn{
		Role:    history.RoleAssistant,
		Content: result.Description,
		TraceID: result.TraceID,
	}); err != nil {
		s.logger.Warn("recording assistant turn failed", "error", err)
	}
}
