// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/seasonrank/internal/domain/types"
)

// LeaderboardDependencies defines the interface for leaderboard operations.
type LeaderboardDependencies interface {
	Leaderboard(ctx context.Context, key types.TableKey, n int) ([]Entry, error)
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

type leaderboardResponse struct {
	types.TableKey
	Entries []Entry `json:"entries"`
}

// HandleGetLeaderboard handles GET /leaderboard?season=&domain=&group=&limit= requests.
// The limit defaults to the configured maximum.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	key, err := parseTableKey(op, q)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	n := h.maxLimit
	if limitStr := q.Get("limit"); limitStr != "" {
		n, err = strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest, "limit must be a positive integer"))
			return
		}
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest, "limit above "+strconv.Itoa(h.maxLimit)))
		return
	}
	entries, err := h.deps.Leaderboard(r.Context(), key, n)
	if err != nil {
		writeLookupError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{TableKey: key, Entries: entries})
}
