// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/seasonrank/internal/domain/types"
)

// RankDependencies defines the interface for rank operations.
type RankDependencies interface {
	Rank(ctx context.Context, key types.TableKey, playerID string) (Entry, error)
}

// RankHandler handles rank requests.
type RankHandler struct {
	deps RankDependencies
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps RankDependencies) *RankHandler {
	return &RankHandler{deps: deps}
}

// HandleGetRank handles GET /rank/{player_id}?season=&domain=&group= requests.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rank"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	playerID := strings.TrimPrefix(r.URL.Path, "/rank/")
	if playerID == "" || strings.Contains(playerID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest, "missing player id"))
		return
	}
	key, err := parseTableKey(op, r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	entry, err := h.deps.Rank(r.Context(), key, playerID)
	if err != nil {
		writeLookupError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
