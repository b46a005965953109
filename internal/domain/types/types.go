// Package types contains the JSON shapes shared by the service and the HTTP API.
package types

import (
	"time"

	"github.com/okian/scoreline/internal/domain/model"
)

// MatchStatus is the lifecycle state of a match.
type MatchStatus string

// Match statuses.
const (
	StatusPending MatchStatus = "pending"
	StatusReady   MatchStatus = "ready"
	StatusFailed  MatchStatus = "failed"
)

// MatchSummary describes a match without its stamps.
type MatchSummary struct {
	ID        string      `json:"match_id"`
	Name      string      `json:"name,omitempty"`
	Status    MatchStatus `json:"status"`
	Digest    string      `json:"digest,omitempty"`
	Stamps    int         `json:"stamps"`
	MaxOffset int         `json:"max_offset"`
	Final     model.Score `json:"final"`
	CreatedAt time.Time   `json:"created_at"`
	Error     string      `json:"error,omitempty"`
}

// ScoreResponse is the answer to a point-in-time lookup.
type ScoreResponse struct {
	MatchID string `json:"match_id"`
	Offset  int    `json:"offset"`
	Home    int    `json:"home"`
	Away    int    `json:"away"`
}

// NewScoreResponse flattens score into the response shape.
func NewScoreResponse(matchID string, offset int, score model.Score) ScoreResponse {
	return ScoreResponse{MatchID: matchID, Offset: offset, Home: score.Home, Away: score.Away}
}
