// Package types contains the ranked-table shapes shared by the service,
// the HTTP API and the exporters.
package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Entry is one ranked player.
type Entry struct {
	Rank       int                `json:"rank"`
	PlayerID   string             `json:"player_id"`
	NameFull   string             `json:"name_full"`
	Position   string             `json:"primary_position"`
	Normalized map[string]float64 `json:"normalized"`
	Score      float64            `json:"score"`
}

// TableKey identifies a ranked table.
type TableKey struct {
	Season int    `json:"season"`
	Domain string `json:"domain"`
	Group  string `json:"group"`
}

func (k TableKey) String() string {
	return fmt.Sprintf("%d/%s/%s", k.Season, k.Domain, k.Group)
}

// ParseTableKey parses the "season/domain/group" form produced by String.
func ParseTableKey(s string) (TableKey, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return TableKey{}, fmt.Errorf("malformed table key %q", s)
	}
	season, err := strconv.Atoi(parts[0])
	if err != nil {
		return TableKey{}, fmt.Errorf("malformed season in table key %q: %w", s, err)
	}
	return TableKey{Season: season, Domain: parts[1], Group: parts[2]}, nil
}

// RankedTable is a comparability group ordered by score, best first.
type RankedTable struct {
	TableKey
	// Stats lists the normalized columns in output order.
	Stats   []string `json:"stats"`
	Entries []Entry  `json:"entries"`
}

// Top returns at most n leading entries.
func (t RankedTable) Top(n int) []Entry {
	if n < 0 || n >= len(t.Entries) {
		return t.Entries
	}
	return t.Entries[:n]
}

// Find returns the entry for playerID.
func (t RankedTable) Find(playerID string) (Entry, bool) {
	for _, e := range t.Entries {
		if e.PlayerID == playerID {
			return e, true
		}
	}
	return Entry{}, false
}
