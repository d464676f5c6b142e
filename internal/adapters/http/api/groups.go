package api

import (
	"context"
	"net/http"
)

// GroupsDependencies lists published comparability groups.
type GroupsDependencies interface {
	Groups(ctx context.Context, season int, domain string) ([]string, error)
}

// GroupsHandler handles group listing requests.
type GroupsHandler struct {
	deps GroupsDependencies
}

// NewGroupsHandler creates a new groups handler.
func NewGroupsHandler(deps GroupsDependencies) *GroupsHandler {
	return &GroupsHandler{deps: deps}
}

type groupsResponse struct {
	Season int      `json:"season"`
	Domain string   `json:"domain"`
	Groups []string `json:"groups"`
}

// HandleGetGroups handles GET /groups?season=&domain= requests.
func (h *GroupsHandler) HandleGetGroups(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_groups"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	season, domain, err := parsePartition(op, r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	groups, err := h.deps.Groups(r.Context(), season, domain.String())
	if err != nil {
		writeLookupError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, groupsResponse{Season: season, Domain: domain.String(), Groups: groups})
}
