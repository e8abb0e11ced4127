// Package handlers exposes alignment runs over a small JSON HTTP API.
package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/uialign/uialign/internal/models"
	"github.com/uialign/uialign/internal/overlay"
	"github.com/uialign/uialign/internal/store"
)

// Runner is the part of the feedback loop the API needs.
type Runner interface {
	Run(ctx context.Context, img image.Image, imagePath string, initial []models.Button) (*models.RunResult, error)
}

// Handler serves the alignment API.
type Handler struct {
	runner Runner
	store  store.RunStore
	log    *slog.Logger
}

// New builds a Handler.
func New(runner Runner, runStore store.RunStore, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{runner: runner, store: runStore, log: logger}
}

type alignRequest struct {
	// ImagePath points at a screenshot on the server's filesystem.
	ImagePath string `json:"image_path,omitempty"`
	// ImageBase64 carries the screenshot inline, with or without a
	// data URL prefix. Takes precedence over ImagePath.
	ImageBase64 string `json:"image_base64,omitempty"`
	// Buttons skips detection when provided.
	Buttons []models.Button `json:"buttons,omitempty"`
}

// HandleAlign runs the full alignment loop for one screenshot.
func (h *Handler) HandleAlign(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "POST":
		var req alignRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.log.Error("Unable to decode align request", "err", err)
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		img, path, err := h.loadImage(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		result, err := h.runner.Run(r.Context(), img, path, req.Buttons)
		if err != nil {
			h.log.Error("Alignment run failed", "err", err)
			http.Error(w, "Alignment run failed", http.StatusBadGateway)
			return
		}

		if err := h.store.SaveRun(r.Context(), result); err != nil {
			h.log.Error("Unable to persist run", "run_id", result.RunID, "err", err)
			http.Error(w, "Failed to persist run", http.StatusInternalServerError)
			return
		}

		if err := json.NewEncoder(w).Encode(result); err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
			return
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) loadImage(req alignRequest) (image.Image, string, error) {
	if req.ImageBase64 != "" {
		raw := req.ImageBase64
		if i := strings.Index(raw, ","); i >= 0 && strings.HasPrefix(raw, "data:") {
			raw = raw[i+1:]
		}
		data, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, "", errors.New("image_base64 is not valid base64")
		}
		img, _, err := overlay.DecodeBytes(data)
		if err != nil {
			return nil, "", errors.New("image_base64 is not a decodable image")
		}
		return img, "inline", nil
	}
	if req.ImagePath != "" {
		img, _, err := overlay.Decode(req.ImagePath)
		if err != nil {
			return nil, "", errors.New("image_path could not be read")
		}
		return img, req.ImagePath, nil
	}
	return nil, "", errors.New("image_path or image_base64 is required")
}

// HandleRuns lists stored runs, newest first. A limit query parameter
// caps the list.
func (h *Handler) HandleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				http.Error(w, "Invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		summaries, err := h.store.ListRuns(r.Context(), limit)
		if err != nil {
			h.log.Error("Unable to list runs", "err", err)
			http.Error(w, "Failed to list runs", http.StatusInternalServerError)
			return
		}
		if summaries == nil {
			summaries = []store.RunSummary{}
		}
		if err := json.NewEncoder(w).Encode(summaries); err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
			return
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleRunDetail returns one run with its full cycle history.
func (h *Handler) HandleRunDetail(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	if runID == "" || strings.Contains(runID, "/") {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case "GET":
		run, err := h.store.GetRun(r.Context(), runID)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Run not found", http.StatusNotFound)
			return
		}
		if err != nil {
			h.log.Error("Unable to load run", "run_id", runID, "err", err)
			http.Error(w, "Failed to load run", http.StatusInternalServerError)
			return
		}
		if err := json.NewEncoder(w).Encode(run); err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
			return
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Register wires the API routes onto mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/align", h.HandleAlign)
	mux.HandleFunc("/api/runs", h.HandleRuns)
	mux.HandleFunc("/api/runs/", h.HandleRunDetail)
}
