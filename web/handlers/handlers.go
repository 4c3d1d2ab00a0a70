// Package handlers provides the HTTP API over the debate engine.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alienxp03/arbiter/internal/core"
	"github.com/alienxp03/arbiter/internal/engine"
	"github.com/alienxp03/arbiter/internal/export"
	"github.com/alienxp03/arbiter/internal/provider"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	engine   *engine.Engine
	registry *provider.Registry
}

// New creates a new Handler.
func New(eng *engine.Engine, registry *provider.Registry) *Handler {
	return &Handler{engine: eng, registry: registry}
}

// Router builds the API router.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/providers", h.handleProviders)
		r.Get("/debates", h.handleListDebates)
		r.Post("/debates", h.handleCreateDebate)
		r.Get("/debates/{runID}/replay", h.handleReplayDebate)
		r.Get("/debates/{runID}/export/{format}", h.handleExportDebate)
	})
	return r
}

func (h *Handler) handleProviders(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, map[string]any{"providers": h.registry.List()})
}

func (h *Handler) handleListDebates(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 {
		limit = 20
	}

	runs, err := h.engine.ListRuns(limit, offset)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]any{"runs": runs})
}

func (h *Handler) handleCreateDebate(w http.ResponseWriter, r *http.Request) {
	var req core.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.engine.Run(r.Context(), req)
	if err != nil {
		slog.Error("Debate run failed", "error", err)
		h.codedError(w, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, resp)
}

func (h *Handler) handleReplayDebate(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	result, err := h.engine.Replay(runID)
	if err != nil {
		h.codedError(w, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, result)
}

func (h *Handler) handleExportDebate(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	format := chi.URLParam(r, "format")

	result, err := h.engine.Replay(runID)
	if err != nil {
		h.codedError(w, err)
		return
	}
	if result.FinalPacket == nil {
		h.jsonError(w, "run has no final packet", http.StatusConflict)
		return
	}

	switch format {
	case "pdf":
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", "attachment; filename=\""+runID+".pdf\"")
		exporter := export.NewPDFExporter()
		if err := exporter.Export(result.FinalPacket, w); err != nil {
			slog.Error("Export failed", "run_id", runID, "format", format, "error", err)
		}
	case "md":
		w.Header().Set("Content-Type", "text/markdown")
		w.Header().Set("Content-Disposition", "attachment; filename=\""+runID+".md\"")
		w.Write([]byte(export.Markdown(result.FinalPacket)))
	default:
		h.jsonError(w, "unsupported export format: "+format, http.StatusBadRequest)
	}
}

// codedError maps engine error codes to HTTP status codes.
func (h *Handler) codedError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := ""

	var coded *core.CodedError
	if errors.As(err, &coded) {
		code = coded.Code
		switch coded.Code {
		case core.ErrCodeInput:
			status = http.StatusBadRequest
		case core.ErrCodeNotFound:
			status = http.StatusNotFound
		case core.ErrCodeBusy:
			status = http.StatusConflict
		case core.ErrCodeAllTurnsFailed:
			status = http.StatusBadGateway
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error(), "code": code})
}

func (h *Handler) jsonResponse(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(value); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
