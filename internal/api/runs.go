package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/thermosentry/thermosentry/internal/store"
)

// runSummary is the external representation of an archived run.
type runSummary struct {
	ID         string `json:"id"`
	Site       string `json:"site"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
	Success    bool   `json:"success"`
}

// handleListRuns returns archived run summaries, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeUnavailable(w, "run archive not configured")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing archived runs failed", "error", err)
		writeInternalError(w, "failed to list runs")
		return
	}

	out := make([]runSummary, 0, len(runs))
	for _, run := range runs {
		out = append(out, runSummary{
			ID:         run.ID,
			Site:       run.Site,
			StartedAt:  run.StartedAt.UTC().Format(time.RFC3339),
			FinishedAt: run.FinishedAt.UTC().Format(time.RFC3339),
			Success:    run.Success,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"runs":  out,
		"count": len(out),
	})
}

// handleGetRun returns the full report of one archived run.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeUnavailable(w, "run archive not configured")
		return
	}

	runID := chi.URLParam(r, "id")
	report, err := s.store.LoadReport(r.Context(), runID)
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			writeNotFound(w, "run not found: "+runID)
			return
		}
		s.logger.Error("loading archived run failed", "run_id", runID, "error", err)
		writeInternalError(w, "failed to load run")
		return
	}
	writeJSON(w, http.StatusOK, report)
}
