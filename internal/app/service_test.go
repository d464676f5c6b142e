package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	service "github.com/okian/seasonrank/internal/app"
	"github.com/okian/seasonrank/internal/adapters/repository"
	"github.com/okian/seasonrank/internal/domain/aggregate"
	"github.com/okian/seasonrank/internal/domain/cleaning"
	"github.com/okian/seasonrank/internal/domain/innings"
	"github.com/okian/seasonrank/internal/domain/model"
	"github.com/okian/seasonrank/internal/domain/schema"
	"github.com/okian/seasonrank/internal/domain/scoring"
	"github.com/okian/seasonrank/internal/domain/types"
	"github.com/okian/seasonrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func row(id, name, pos string, stats map[string]string) model.StatRow {
	r := model.StatRow{
		PlayerID:        id,
		NameFull:        name,
		PrimaryPosition: pos,
		TeamID:          "147",
		TeamName:        "New York Yankees",
		Stats:           make(map[string]model.Value, len(stats)),
	}
	for k, v := range stats {
		r.Stats[k] = model.Value(v)
	}
	return r
}

func pitchingRows() []model.StatRow {
	return []model.StatRow{
		row("p1", "Swing Man", "1", map[string]string{"w": "2", "sv": "0", "hld": "1", "so": "10", "er": "2", "bb": "3", "h": "5", "ip": "6.2", "g": "3", "gs": "1"}),
		row("p2", "Ace Starter", "1", map[string]string{"w": "5", "sv": "0", "hld": "0", "so": "30", "er": "10", "bb": "5", "h": "20", "ip": "20.0", "g": "4", "gs": "4"}),
		row("p1", "Swing Man", "1", map[string]string{"w": "1", "sv": "0", "hld": "0", "so": "4", "er": "1", "bb": "1", "h": "2", "ip": "1.1", "g": "2", "gs": "0"}),
		row("p3", "Late Closer", "1", map[string]string{"w": "0", "sv": "5", "hld": "3", "so": "12", "er": "1", "bb": "2", "h": "4", "ip": "9.1", "g": "10", "gs": "0"}),
	}
}

func hittingRows() []model.StatRow {
	return []model.StatRow{
		row("h1", "Center Fielder", "8", map[string]string{"ab": "400", "r": "70", "h": "120", "rbi": "60", "hr": "20", "sb": "15"}),
		row("h2", "Some Outfielder", "O", map[string]string{"ab": "300", "r": "40", "h": "75", "rbi": "45", "hr": "10", "sb": "2"}),
		row("h3", "Designated Hitter", "D", map[string]string{"ab": "500", "r": "90", "h": "150", "rbi": "110", "hr": "40", "sb": "0"}),
		row("h4", "Bench Shortstop", "6", map[string]string{"ab": "0", "r": "1", "h": "0", "rbi": "0", "hr": "0", "sb": "1"}),
		row("h5", "Empty Stint", "6", map[string]string{"ab": "", "r": ""}),
	}
}

type recordingSink struct {
	mu       sync.Mutex
	cleaned  []cleaning.Table
	rankings map[model.Domain][]types.RankedTable
	fail     error
}

func (s *recordingSink) WriteDomain(_ context.Context, t cleaning.Table, tables []types.RankedTable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	if s.rankings == nil {
		s.rankings = map[model.Domain][]types.RankedTable{}
	}
	s.cleaned = append(s.cleaned, t)
	s.rankings[t.Domain] = tables
	return nil
}

func started(opts ...service.Option) *service.Service {
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	return svc
}

func TestService_Start(t *testing.T) {
	Convey("Given a new service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithRoleThresholds(1, 1))

		Convey("When ranking before Start", func() {
			_, err := svc.RankDomain(ctx, 2019, model.Hitting, hittingRows())

			Convey("Then it should refuse", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When starting twice", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then ranking should work", func() {
				_, err := svc.RankDomain(ctx, 2019, model.Hitting, hittingRows())
				So(err, ShouldBeNil)
			})
		})

		Convey("When a direction override is supplied", func() {
			custom := service.New(service.WithDirections(model.Hitting, map[string]schema.Direction{"sb": schema.Minimize}))

			Convey("Then Start should succeed", func() {
				So(custom.Start(ctx), ShouldBeNil)
			})
		})
	})
}

func TestService_ProcessSeason(t *testing.T) {
	Convey("Given a started service with a sink", t, func() {
		ctx := context.Background()
		sink := &recordingSink{}
		store := repository.NewMemoryStore()
		svc := started(service.WithSink(sink), service.WithStore(store))

		Convey("When a season is processed", func() {
			res, err := svc.ProcessSeason(ctx, model.SeasonRows{
				Season:   2019,
				Hitting:  hittingRows(),
				Pitching: pitchingRows(),
			})
			So(err, ShouldBeNil)
			So(res.RunID, ShouldNotBeEmpty)

			Convey("Then split stints should merge with exact innings", func() {
				pitching := res.Domains[model.Pitching]
				So(pitching.Table.Players, ShouldHaveLength, 3)
				p1 := pitching.Table.Players[0]
				So(p1.PlayerID, ShouldEqual, "p1")
				So(p1.Reals[schema.InningsPitched], ShouldAlmostEqual, 8.0, 1e-9)
				So(p1.Count(schema.EarnedRuns), ShouldEqual, 3)

				scorer, scErr := scoring.New(schema.Pitching())
				So(scErr, ShouldBeNil)
				So(scorer.Derive(p1)["era"], ShouldAlmostEqual, 3.375, 1e-9)
			})

			Convey("Then pitchers should be grouped by role with dual membership", func() {
				pitching := res.Domains[model.Pitching]
				So(pitching.Dual, ShouldEqual, 1)
				keys := make([]string, 0, len(pitching.Rankings))
				for _, tb := range pitching.Rankings {
					keys = append(keys, tb.Group)
				}
				So(keys, ShouldResemble, []string{"all", "RP", "SP"})
			})

			Convey("Then hitters should be grouped by position after filtering", func() {
				hitting := res.Domains[model.Hitting]
				So(hitting.Table.Discarded, ShouldEqual, 1)
				So(hitting.Excluded, ShouldEqual, 0)
				groups, gErr := svc.Groups(ctx, 2019, "hitting")
				So(gErr, ShouldBeNil)
				So(groups, ShouldResemble, []string{"all", "6", "D", "OF"})

				bench, bErr := svc.Rank(ctx, types.TableKey{Season: 2019, Domain: "hitting", Group: "all"}, "h4")
				So(bErr, ShouldBeNil)
				So(bench.Normalized, ShouldNotContainKey, "ba")

				of, lErr := svc.Leaderboard(ctx, types.TableKey{Season: 2019, Domain: "hitting", Group: "OF"}, 10)
				So(lErr, ShouldBeNil)
				So(of, ShouldHaveLength, 2)
				So(of[0].PlayerID, ShouldEqual, "h1")
				So(of[0].Score, ShouldEqual, 1)
				So(of[1].Score, ShouldEqual, 0)
			})

			Convey("Then scores should be bounded and ranks contiguous", func() {
				for _, d := range model.Domains() {
					for _, tb := range res.Domains[d].Rankings {
						for i, e := range tb.Entries {
							So(e.Rank, ShouldEqual, i+1)
							So(e.Score, ShouldBeBetweenOrEqual, 0, 1)
						}
					}
				}
			})

			Convey("Then the sink and the store should hold every table", func() {
				So(sink.cleaned, ShouldHaveLength, 2)
				So(sink.rankings[model.Pitching], ShouldHaveLength, 3)
				So(store.Count(ctx), ShouldEqual, 7)

				e, rErr := svc.Rank(ctx, types.TableKey{Season: 2019, Domain: "pitching", Group: "all"}, "p3")
				So(rErr, ShouldBeNil)
				So(e.NameFull, ShouldEqual, "Late Closer")
			})
		})
	})
}

func TestService_Failures(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()

		Convey("When a pitching row carries an invalid innings digit", func() {
			svc := started(service.WithStore(store))
			rows := pitchingRows()
			rows[1].Stats["ip"] = "20.5"

			res, err := svc.ProcessSeason(ctx, model.SeasonRows{Season: 2019, Hitting: hittingRows(), Pitching: rows})

			Convey("Then the pitching table should fail and nothing of it be published", func() {
				So(errors.Is(err, innings.ErrInvalidEncoding), ShouldBeTrue)
				var te *cleaning.TableError
				So(errors.As(err, &te), ShouldBeTrue)
				So(te.PlayerID, ShouldEqual, "p2")
				So(te.Field, ShouldEqual, "ip")
				_, gErr := store.Groups(ctx, 2019, "pitching")
				So(errors.Is(gErr, repository.ErrTableNotFound), ShouldBeTrue)
			})

			Convey("Then the hitting table should still be published", func() {
				So(res.Domains, ShouldContainKey, model.Hitting)
				So(res.Domains, ShouldNotContainKey, model.Pitching)
				groups, gErr := store.Groups(ctx, 2019, "hitting")
				So(gErr, ShouldBeNil)
				So(groups, ShouldNotBeEmpty)
			})
		})

		Convey("When stints disagree on identity under the strict policy", func() {
			svc := started(service.WithStore(store), service.WithIdentityPolicy(aggregate.Strict))
			rows := pitchingRows()
			rows[2].NameFull = "Renamed Man"

			_, err := svc.RankDomain(ctx, 2019, model.Pitching, rows)

			Convey("Then a duplicate identity error should surface", func() {
				So(errors.Is(err, aggregate.ErrDuplicateIdentity), ShouldBeTrue)
			})
		})

		Convey("When a sink fails", func() {
			sinkErr := errors.New("disk full")
			svc := started(service.WithStore(store), service.WithSink(&recordingSink{fail: sinkErr}))

			_, err := svc.RankDomain(ctx, 2019, model.Hitting, hittingRows())

			Convey("Then the run should fail without publishing", func() {
				So(errors.Is(err, sinkErr), ShouldBeTrue)
				So(store.Count(ctx), ShouldEqual, 0)
			})
		})

		Convey("When the context is already cancelled", func() {
			svc := started(service.WithStore(store))
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			_, err := svc.RankDomain(cctx, 2019, model.Hitting, hittingRows())

			Convey("Then the run should stop", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestService_IdenticalPlayers(t *testing.T) {
	Convey("Given hitters with identical statistics", t, func() {
		ctx := context.Background()
		svc := started()
		stats := map[string]string{"ab": "100", "r": "10", "h": "30", "rbi": "12", "hr": "3", "sb": "1"}
		rows := []model.StatRow{row("a", "A", "4", stats), row("b", "B", "4", stats)}

		res, err := svc.RankDomain(ctx, 2019, model.Hitting, rows)

		Convey("Then every composite should be zero and degenerate stats reported", func() {
			So(err, ShouldBeNil)
			for _, tb := range res.Rankings {
				for _, e := range tb.Entries {
					So(e.Score, ShouldEqual, 0)
				}
			}
			// five stats in each of the "all" and "4" groups
			So(res.Warnings, ShouldHaveLength, 10)
			So(res.Rankings[0].Entries[0].PlayerID, ShouldEqual, "a")
		})
	})
}
