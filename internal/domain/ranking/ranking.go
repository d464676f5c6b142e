// Package ranking orders scored groups into ranked tables.
package ranking

import (
	"sort"

	"github.com/okian/seasonrank/internal/domain/scoring"
	"github.com/okian/seasonrank/internal/domain/types"
)

// Rank sorts a scored group by composite score, best first. Rows with equal
// scores keep their input order. An empty group yields an empty table.
func Rank(key types.TableKey, scored scoring.Scored) types.RankedTable {
	rows := append([]scoring.Row(nil), scored.Rows...)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Score > rows[j].Score
	})

	table := types.RankedTable{
		TableKey: key,
		Stats:    append([]string(nil), scored.Stats...),
		Entries:  make([]types.Entry, len(rows)),
	}
	for i, r := range rows {
		table.Entries[i] = types.Entry{
			Rank:       i + 1,
			PlayerID:   r.Player.PlayerID,
			NameFull:   r.Player.NameFull,
			Position:   r.Player.PrimaryPosition,
			Normalized: r.Normalized,
			Score:      r.Score,
		}
	}
	return table
}
