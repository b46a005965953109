package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/scoreline/internal/domain/model"
	"github.com/okian/scoreline/internal/domain/types"
)

// ScoreDependencies defines the lookup operation.
type ScoreDependencies interface {
	Score(ctx context.Context, id string, offset int) (model.Score, error)
}

// ScoreHandler handles point-in-time score lookups.
type ScoreHandler struct {
	deps ScoreDependencies
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(deps ScoreDependencies) *ScoreHandler {
	return &ScoreHandler{deps: deps}
}

// HandleGetScore handles GET /matches/{id}/score?offset=N.
//
// 404 no_such_timestamp means the offset lies inside the timeline but nothing
// was recorded there; 422 out_of_range means it lies outside it.
func (h *ScoreHandler) HandleGetScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_score"
	raw := r.URL.Query().Get("offset")
	offset, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	id := r.PathValue("id")
	score, err := h.deps.Score(r.Context(), id, offset)
	if err != nil {
		writeClassified(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, types.NewScoreResponse(id, offset, score))
}
