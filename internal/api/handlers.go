package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sahelgroup/recon-cli/internal/model"
	"github.com/sahelgroup/recon-cli/internal/reconcile"
	"github.com/sahelgroup/recon-cli/internal/store"
	"github.com/sahelgroup/recon-cli/internal/tabular"
)

type validateRequest struct {
	// Source is the source-of-truth dataset. Optional when SourceID
	// names a previously cached dataset.
	Source []*tabular.Entry `json:"source"`
	// Candidates is the dataset to validate.
	Candidates []*tabular.Entry `json:"candidates"`
	// SourceID keys the source-index cache. When Source is supplied the
	// built index is cached under this ID; when omitted the ID must hit
	// the cache.
	SourceID string `json:"source_id,omitempty"`
	// Save persists the run to the store.
	Save bool `json:"save,omitempty"`
}

type validateResponse struct {
	RunID    string           `json:"run_id,omitempty"`
	Summary  model.Summary    `json:"summary"`
	Warnings []string         `json:"warnings,omitempty"`
	Results  []*tabular.Entry `json:"results"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if len(req.Candidates) == 0 {
		writeError(w, http.StatusBadRequest, "candidates dataset is required")
		return
	}
	if req.Save && s.store == nil {
		writeError(w, http.StatusNotImplemented, "run store is not configured")
		return
	}
	if max := s.cfg.Limits.MaxCandidateRecords; max > 0 && len(req.Candidates) > max {
		writeError(w, http.StatusRequestEntityTooLarge, "candidates dataset exceeds limit")
		return
	}
	if max := s.cfg.Limits.MaxSourceRecords; max > 0 && len(req.Source) > max {
		writeError(w, http.StatusRequestEntityTooLarge, "source dataset exceeds limit")
		return
	}

	idx, ok := s.sourceIndex(&req)
	if !ok {
		writeError(w, http.StatusBadRequest, "source dataset is required (unknown source_id)")
		return
	}

	outcome, err := s.engine.RunIndexed(r.Context(), idx, req.Candidates)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := validateResponse{
		Summary:  outcome.Summary,
		Warnings: outcome.Warnings,
		Results:  outcome.Entries,
	}

	if req.Save {
		run, err := outcome.ToRun("", "")
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		run.SourceFile = req.SourceID
		if err := s.store.CreateRun(r.Context(), run); err != nil {
			zap.L().Error("persist run failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to persist run")
			return
		}
		resp.RunID = run.ID
	}

	writeJSON(w, http.StatusOK, resp)
}

// sourceIndex resolves the index for a request: a cache hit by source_id,
// or a fresh build from the inline source dataset (cached when an ID is
// supplied).
func (s *Server) sourceIndex(req *validateRequest) (*reconcile.SourceIndex, bool) {
	if len(req.Source) == 0 {
		if req.SourceID == "" || s.cache == nil {
			return nil, false
		}
		return s.cache.Get(req.SourceID)
	}

	idx := s.engine.BuildIndex(req.Source)
	if req.SourceID != "" && s.cache != nil {
		s.cache.Put(req.SourceID, idx)
	}
	return idx, true
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "run store is not configured")
		return
	}

	filter := store.RunFilter{}
	if v := r.URL.Query().Get("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		filter.Offset, _ = strconv.Atoi(v)
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "run store is not configured")
		return
	}

	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run)
}

type approveRequest struct {
	Note string `json:"note"`
}

// handleApprove is the manual-override channel: a reviewer force-sets one
// stored result's status to Valid. The engine never does this itself.
func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "run store is not configured")
		return
	}

	runID := chi.URLParam(r, "id")
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "result index must be an integer")
		return
	}

	var req approveRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // note is optional
	}

	if err := s.store.ApproveResult(r.Context(), runID, index, req.Note); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	zap.L().Info("result manually approved",
		zap.String("run_id", runID),
		zap.Int("index", index),
	)
	writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}
