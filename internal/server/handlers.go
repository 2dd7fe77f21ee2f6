package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/wtthornton/LocalMCP/internal/enhance"
	"github.com/wtthornton/LocalMCP/internal/logger"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	caps := s.capabilities
	if caps == nil {
		caps = []string{}
	}
	writeAPIJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: s.version, Capabilities: caps})
}

func (s *Server) handleEnhance(w http.ResponseWriter, r *http.Request) {
	req := EnhanceRequest{Options: enhance.DefaultOptions()}
	req.Options.UseAIEnhancement = s.useAI

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt is required", nil)
		return
	}

	logger.SetLastInput(req.Prompt)
	resp, err := s.enhancer.Enhance(r.Context(), req.Prompt, req.Context, req.Options)
	if err != nil {
		var verr *enhance.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, enhance.ErrInvalidOptions.Error(), verr.Problems)
			return
		}
		slog.Error("enhance request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	writeAPIJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		writeError(w, http.StatusNotFound, "cache is disabled", nil)
		return
	}
	st, err := s.cache.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	writeAPIJSON(w, http.StatusOK, st)
}

// handleClearCache removes every entry, or only entries older than ?older_than=<duration>.
func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		writeError(w, http.StatusNotFound, "cache is disabled", nil)
		return
	}

	if v := r.URL.Query().Get("older_than"); v != "" {
		age, err := time.ParseDuration(v)
		if err != nil || age <= 0 {
			writeError(w, http.StatusBadRequest, "older_than must be a positive duration such as 24h", nil)
			return
		}
		n, err := s.cache.Prune(r.Context(), age)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error(), nil)
			return
		}
		writeAPIJSON(w, http.StatusOK, ClearResponse{Success: true, Removed: n})
		return
	}

	if err := s.cache.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	writeAPIJSON(w, http.StatusOK, ClearResponse{Success: true})
}

func writeAPIJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string, problems []string) {
	writeAPIJSON(w, status, ErrorResponse{Error: msg, Problems: problems})
}
