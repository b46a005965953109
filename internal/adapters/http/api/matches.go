package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	service "github.com/okian/scoreline/internal/app"
	"github.com/okian/scoreline/internal/domain/model"
	"github.com/okian/scoreline/internal/domain/timeline"
	"github.com/okian/scoreline/internal/domain/types"
	"github.com/okian/scoreline/internal/fixture"
)

// MatchDependencies defines the match operations the handlers need.
type MatchDependencies interface {
	GenerateMatch(ctx context.Context, req service.GenerateRequest) (string, error)
	ImportMatch(ctx context.Context, name string, stamps []model.Stamp) (string, bool, error)
	ImportTimeline(ctx context.Context, name string, tl *timeline.Timeline) (string, bool, error)
	Match(ctx context.Context, id string) (types.MatchSummary, error)
	Matches(ctx context.Context, limit int) ([]types.MatchSummary, error)
	DeleteMatch(ctx context.Context, id string) error
}

// MatchesHandler handles the /matches collection and its items.
type MatchesHandler struct {
	deps         MatchDependencies
	maxBodyBytes int64
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(deps MatchDependencies, maxBodyBytes int64) *MatchesHandler {
	return &MatchesHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

// HandleGenerate handles POST /matches. An empty body uses the defaults.
func (h *MatchesHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	const op = "api.generate_match"
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	id, err := h.deps.GenerateMatch(r.Context(), service.GenerateRequest{
		Name:  req.Name,
		Seed:  req.Seed,
		Count: req.Count,
	})
	if err != nil {
		writeClassified(w, op, err)
		return
	}
	w.Header().Set("Location", "/matches/"+id)
	writeJSON(w, http.StatusAccepted, acceptedResponse{MatchID: id, Status: types.StatusPending})
}

// HandleImport handles POST /matches/import. YAML bodies are read as
// fixtures; anything else is decoded as JSON.
func (h *MatchesHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	const op = "api.import_match"
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var (
		id  string
		dup bool
		err error
	)
	if isYAML(r.Header.Get("Content-Type")) {
		name, tl, derr := fixture.Decode(body)
		if derr != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, derr))
			return
		}
		id, dup, err = h.deps.ImportTimeline(r.Context(), name, tl)
	} else {
		var doc fixture.Document
		if derr := json.NewDecoder(body).Decode(&doc); derr != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, derr))
			return
		}
		id, dup, err = h.deps.ImportMatch(r.Context(), doc.Name, doc.ToStamps())
	}
	if err != nil {
		writeClassified(w, op, err)
		return
	}

	status := http.StatusCreated
	if dup {
		status = http.StatusOK
	}
	w.Header().Set("Location", "/matches/"+id)
	writeJSON(w, status, importResponse{MatchID: id, Duplicate: dup})
}

func isYAML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch mt {
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return true
	}
	return false
}

// HandleList handles GET /matches?limit=N. Without limit the service default applies.
func (h *MatchesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_matches"
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}
	list, err := h.deps.Matches(r.Context(), limit)
	if err != nil {
		writeClassified(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleGet handles GET /matches/{id}. Ready matches carry their digest as ETag.
func (h *MatchesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_match"
	summary, err := h.deps.Match(r.Context(), r.PathValue("id"))
	if errors.Is(err, service.ErrPending) {
		writeJSON(w, http.StatusConflict, summary)
		return
	}
	if err != nil {
		writeClassified(w, op, err)
		return
	}
	if summary.Digest != "" {
		etag := strconv.Quote(summary.Digest)
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	writeJSON(w, http.StatusOK, summary)
}

// HandleDelete handles DELETE /matches/{id}.
func (h *MatchesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_match"
	if err := h.deps.DeleteMatch(r.Context(), r.PathValue("id")); err != nil {
		writeClassified(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
