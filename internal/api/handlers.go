package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/manifest"
	"github.com/starford/raido/internal/pipeline"
	"github.com/starford/raido/internal/search"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/workspace"
)

// Handler serves the dashboard endpoints.
type Handler struct {
	svc   *Service
	pipe  *pipeline.Pipeline
	store storage.Provider
	paths workspace.Paths
	db    *search.DB
}

// NewHandler creates a Handler.
func NewHandler(svc *Service, pipe *pipeline.Pipeline, store storage.Provider, paths workspace.Paths, db *search.DB) *Handler {
	return &Handler{svc: svc, pipe: pipe, store: store, paths: paths, db: db}
}

// StartJob handles POST /jobs/{command}: launch a pipeline command
// asynchronously; progress streams over /events.
func (h *Handler) StartJob(w http.ResponseWriter, r *http.Request) {
	command := chi.URLParam(r, "command")
	opts := JobOptions{
		RegenIndexes: r.URL.Query().Get("index") == "true",
		WithTags:     r.URL.Query().Get("tags") == "true",
		Force:        r.URL.Query().Get("force") == "true",
		Format:       r.URL.Query().Get("format"),
	}

	err := h.svc.StartJob(command, opts)
	switch {
	case errors.Is(err, apperr.ErrBusy):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
	default:
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "started", "command": command})
	}
}

// Report handles GET /report: synchronous archive statistics.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	stats, err := h.pipe.Report(r.URL.Query().Get("tags") == "true")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Search handles GET /search: full-text query (q) or metadata filter
// (domain, tag) over the archive index.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	var (
		results []search.Result
		err     error
	)
	if text := q.Get("q"); text != "" {
		results, err = h.db.Search(text, limit)
	} else {
		results, err = h.db.Filter(q.Get("domain"), q.Get("tag"), limit)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	writeJSON(w, http.StatusOK, results)
}

// Manifest handles GET /manifest: the current work list, re-read fresh.
func (h *Handler) Manifest(w http.ResponseWriter, _ *http.Request) {
	records, err := manifest.Load(h.store, h.paths)
	if err != nil {
		writeError(w, err)
		return
	}
	type row struct {
		OriginalPath    string `json:"original_path"`
		Filename        string `json:"filename"`
		SuggestedDomain string `json:"suggested_domain"`
		SuggestedTags   string `json:"suggested_tags"`
		MaturationStage string `json:"maturation_stage"`
		Snippet         string `json:"snippet"`
		Status          string `json:"status"`
	}
	out := make([]row, len(records))
	for i, rec := range records {
		out[i] = row{
			OriginalPath:    rec.OriginalPath,
			Filename:        rec.Filename,
			SuggestedDomain: rec.SuggestedDomain,
			SuggestedTags:   rec.SuggestedTags,
			MaturationStage: rec.MaturationStage,
			Snippet:         rec.Snippet,
			Status:          rec.Status,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// ValidateLinks handles GET /validate/links: read-only index link and
// orphan check.
func (h *Handler) ValidateLinks(w http.ResponseWriter, _ *http.Request) {
	issues, err := h.pipe.ValidateLinks()
	if err != nil {
		writeError(w, err)
		return
	}
	if issues == nil {
		issues = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"issues": issues})
}

// Ingest handles POST /ingest: raw text body becomes a staged note.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("read body: "+err.Error()))
		return
	}
	path, err := h.pipe.Ingest(string(body))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"path": path})
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, apperr.ErrMissingPrerequisite) {
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
}
