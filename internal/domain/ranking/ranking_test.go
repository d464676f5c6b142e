package ranking_test

import (
	"testing"

	"github.com/okian/seasonrank/internal/domain/model"
	"github.com/okian/seasonrank/internal/domain/ranking"
	"github.com/okian/seasonrank/internal/domain/scoring"
	"github.com/okian/seasonrank/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func row(id string, score float64) scoring.Row {
	return scoring.Row{
		Player:     model.PlayerSeason{PlayerID: id, NameFull: "Player " + id, PrimaryPosition: "6"},
		Normalized: map[string]float64{"r": score},
		Score:      score,
	}
}

func TestRank(t *testing.T) {
	key := types.TableKey{Season: 2021, Domain: "hitting", Group: "6"}

	Convey("Given a scored group", t, func() {
		scored := scoring.Scored{
			Key:   "6",
			Stats: []string{"r"},
			Rows:  []scoring.Row{row("a", 0.2), row("b", 0.9), row("c", 0.5), row("d", 0.9), row("e", 0.5)},
		}
		table := ranking.Rank(key, scored)

		Convey("Then entries are sorted by score descending", func() {
			So(table.Entries, ShouldHaveLength, 5)
			for i := 1; i < len(table.Entries); i++ {
				So(table.Entries[i-1].Score, ShouldBeGreaterThanOrEqualTo, table.Entries[i].Score)
			}
		})

		Convey("Then ties keep their input order", func() {
			ids := []string{}
			for _, e := range table.Entries {
				ids = append(ids, e.PlayerID)
			}
			So(ids, ShouldResemble, []string{"b", "d", "c", "e", "a"})
		})

		Convey("Then ranks are positional and identity is carried", func() {
			So(table.Entries[0].Rank, ShouldEqual, 1)
			So(table.Entries[4].Rank, ShouldEqual, 5)
			So(table.Entries[0].NameFull, ShouldEqual, "Player b")
			So(table.Entries[0].Position, ShouldEqual, "6")
			So(table.TableKey, ShouldResemble, key)
			So(table.Stats, ShouldResemble, []string{"r"})
		})

		Convey("Then the scored input is not reordered", func() {
			So(scored.Rows[0].Player.PlayerID, ShouldEqual, "a")
		})
	})

	Convey("Given an empty group", t, func() {
		table := ranking.Rank(key, scoring.Scored{Key: "6", Stats: []string{"r"}})
		So(table.Entries, ShouldBeEmpty)
	})
}
