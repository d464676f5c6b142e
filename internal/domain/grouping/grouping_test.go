package grouping_test

import (
	"testing"

	"github.com/okian/seasonrank/internal/domain/grouping"
	"github.com/okian/seasonrank/internal/domain/model"
	"github.com/okian/seasonrank/internal/domain/schema"
	. "github.com/smartystreets/goconvey/convey"
)

func keysOf(res grouping.Result) []string {
	out := make([]string, len(res.Groups))
	for i, g := range res.Groups {
		out[i] = g.Key
	}
	return out
}

func find(res grouping.Result, key string) []string {
	for _, g := range res.Groups {
		if g.Key == key {
			ids := make([]string, len(g.Players))
			for i, p := range g.Players {
				ids[i] = p.PlayerID
			}
			return ids
		}
	}
	return nil
}

func TestResolvePosition(t *testing.T) {
	Convey("Given fielding position codes", t, func() {
		So(grouping.ResolvePosition("7"), ShouldEqual, "OF")
		So(grouping.ResolvePosition("8"), ShouldEqual, "OF")
		So(grouping.ResolvePosition("9"), ShouldEqual, "OF")
		So(grouping.ResolvePosition("O"), ShouldEqual, "OF")
		So(grouping.ResolvePosition("D"), ShouldEqual, "D")
		So(grouping.ResolvePosition("2"), ShouldEqual, "2")
		So(grouping.ResolvePosition("6"), ShouldEqual, "6")
		So(grouping.ResolvePosition("Y"), ShouldEqual, "Y")
	})
}

func TestGroupHitting(t *testing.T) {
	Convey("Given a cleaned hitting table", t, func() {
		hitter := func(id, pos string, ab int) model.PlayerSeason {
			return model.PlayerSeason{PlayerID: id, PrimaryPosition: pos, Counts: map[string]int{"ab": ab, "h": 1}}
		}
		players := []model.PlayerSeason{
			hitter("a", "7", 100), hitter("b", "2", 90), hitter("c", "O", 80),
			hitter("d", "D", 70), hitter("e", "9", 0), hitter("f", "2", 60),
		}

		res := grouping.New().Group(schema.Hitting(), players)

		Convey("Then outfielders share one group and all comes first", func() {
			So(keysOf(res), ShouldResemble, []string{"all", "2", "D", "OF"})
			So(find(res, "OF"), ShouldResemble, []string{"a", "c", "e"})
			So(find(res, "2"), ShouldResemble, []string{"b", "f"})
			So(find(res, "D"), ShouldResemble, []string{"d"})
		})

		Convey("Then hitters without an at-bat are still ranked", func() {
			So(res.Excluded, ShouldEqual, 0)
			So(find(res, "all"), ShouldResemble, []string{"a", "b", "c", "d", "e", "f"})
		})
	})
}

func TestGroupPitching(t *testing.T) {
	Convey("Given a cleaned pitching table", t, func() {
		pitcher := func(id string, g, gs int, ip float64) model.PlayerSeason {
			return model.PlayerSeason{
				PlayerID: id, PrimaryPosition: "1",
				Counts: map[string]int{"g": g, "gs": gs},
				Reals:  map[string]float64{"ip": ip},
			}
		}
		players := []model.PlayerSeason{
			pitcher("starter", 30, 30, 180),
			pitcher("closer", 60, 0, 60),
			pitcher("swing", 25, 8, 90),
			pitcher("idle", 1, 0, 0),
		}

		Convey("When default thresholds are used", func() {
			res := grouping.New().Group(schema.Pitching(), players)

			So(keysOf(res), ShouldResemble, []string{"all", "RP", "SP"})
			So(find(res, "SP"), ShouldResemble, []string{"starter", "swing"})
			So(find(res, "RP"), ShouldResemble, []string{"closer", "swing"})
			So(res.Dual, ShouldEqual, 1)

			Convey("Then zero-inning pitchers are dropped before grouping", func() {
				So(res.Excluded, ShouldEqual, 1)
				So(find(res, "all"), ShouldNotContain, "idle")
			})
		})

		Convey("When thresholds are raised", func() {
			g := grouping.New(grouping.WithMinStarts(10), grouping.WithMinReliefAppearances(20))
			res := g.Group(schema.Pitching(), players)

			So(find(res, "SP"), ShouldResemble, []string{"starter"})
			So(find(res, "RP"), ShouldResemble, []string{"closer"})
			So(res.Dual, ShouldEqual, 0)
			So(g.IsStarter(players[2]), ShouldBeFalse)
			So(g.IsReliever(players[2]), ShouldBeFalse)
		})
	})

	Convey("Given an empty table", t, func() {
		res := grouping.New().Group(schema.Pitching(), nil)
		So(keysOf(res), ShouldResemble, []string{"all"})
		So(res.Groups[0].Players, ShouldBeEmpty)
	})
}
