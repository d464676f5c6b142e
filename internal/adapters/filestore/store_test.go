package filestore_test

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bytedance/sonic"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"

	"github.com/okian/seasonrank/internal/adapters/filestore"
	"github.com/okian/seasonrank/internal/domain/cleaning"
	"github.com/okian/seasonrank/internal/domain/model"
	"github.com/okian/seasonrank/internal/domain/schema"
	"github.com/okian/seasonrank/internal/domain/types"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func pitchingTables() []types.RankedTable {
	stats := []string{"w", "so", "sv_hld", "era", "whip"}
	entry := func(rank int, id string, score float64) types.Entry {
		return types.Entry{
			Rank: rank, PlayerID: id, NameFull: "Pitcher " + id, Position: "1", Score: score,
			Normalized: map[string]float64{"w": score, "so": score, "sv_hld": 0, "era": score, "whip": 1},
		}
	}
	return []types.RankedTable{
		{TableKey: types.TableKey{Season: 2019, Domain: "pitching", Group: "all"}, Stats: stats,
			Entries: []types.Entry{entry(1, "p1", 0.8), entry(2, "p2", 0.25)}},
		{TableKey: types.TableKey{Season: 2019, Domain: "pitching", Group: "SP"}, Stats: stats,
			Entries: []types.Entry{entry(1, "p2", 0.5)}},
	}
}

func TestRawRoundTrip(t *testing.T) {
	Convey("Given a store in a temp directory", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		store := filestore.New(filepath.Join(dir, "data"), filepath.Join(dir, "rankings"))

		rows := model.SeasonRows{
			Season: 2019,
			Hitting: []model.StatRow{{
				PlayerID: "592450", NameFull: "Aaron Judge", PrimaryPosition: "9", TeamName: "New York Yankees",
				Stats: map[string]model.Value{"ab": "402", "hr": "27", "sb": ""},
			}},
			Pitching: []model.StatRow{{
				PlayerID: "543037", NameFull: "Gerrit Cole", PrimaryPosition: "1",
				Stats: map[string]model.Value{"ip": "66.2", "er": "21"},
			}},
		}

		Convey("When a season is written and read back", func() {
			So(store.WriteSeason(ctx, rows), ShouldBeNil)
			back, err := store.ReadSeason(ctx, 2019)

			Convey("Then the rows should survive with exact stat text", func() {
				So(err, ShouldBeNil)
				So(store.RawPath(2019, model.Pitching), ShouldEndWith, filepath.Join("data", "pitching-stats-2019.json"))
				So(back.Hitting, ShouldHaveLength, 1)
				So(back.Hitting[0].NameFull, ShouldEqual, "Aaron Judge")
				So(back.Hitting[0].TeamName, ShouldEqual, "New York Yankees")
				So(back.Hitting[0].Stat("hr"), ShouldEqual, model.Value("27"))
				So(back.Hitting[0].Stat("sb").IsMissing(), ShouldBeTrue)
				So(back.Pitching[0].Stat("ip"), ShouldEqual, model.Value("66.2"))
			})
		})

		Convey("When numeric cells were written by another tool", func() {
			path := store.RawPath(2018, model.Pitching)
			So(os.MkdirAll(filepath.Dir(path), 0o755), ShouldBeNil)
			So(os.WriteFile(path, []byte(`[{"player_id":"1","ip":6.1,"er":3}]`), 0o600), ShouldBeNil)

			got, err := store.ReadRaw(ctx, 2018, model.Pitching)

			Convey("Then numbers should keep their literal form", func() {
				So(err, ShouldBeNil)
				So(got[0].Stat("ip"), ShouldEqual, model.Value("6.1"))
			})
		})

		Convey("When the raw file is missing", func() {
			_, err := store.ReadRaw(ctx, 1999, model.Hitting)

			Convey("Then a not-found error should surface", func() {
				So(errors.Is(err, filestore.ErrRawNotFound), ShouldBeTrue)
			})
		})

		Convey("When the raw file is not a list", func() {
			path := store.RawPath(2017, model.Hitting)
			So(os.MkdirAll(filepath.Dir(path), 0o755), ShouldBeNil)
			So(os.WriteFile(path, []byte(`{"player_id":"1"}`), 0o600), ShouldBeNil)

			_, err := store.ReadRaw(ctx, 2017, model.Hitting)

			Convey("Then it should be reported as corrupt", func() {
				So(errors.Is(err, filestore.ErrCorruptRaw), ShouldBeTrue)
			})
		})
	})
}

func TestWriteCleaned(t *testing.T) {
	Convey("Given a cleaned pitching table", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		store := filestore.New(filepath.Join(dir, "data"), filepath.Join(dir, "rankings"))
		table := cleaning.Table{
			Season: 2019,
			Domain: model.Pitching,
			Schema: schema.Pitching(),
			Players: []model.PlayerSeason{{
				PlayerID: "p1", NameFull: "Swing Man", PrimaryPosition: "1",
				Counts: map[string]int{"w": 3, "er": 3, "g": 5, "gs": 1},
				Reals:  map[string]float64{"ip": 8.0 + 1.0/3.0},
			}},
		}

		Convey("When it is written", func() {
			So(store.WriteCleaned(ctx, table), ShouldBeNil)
			rows := readCSV(t, store.CleanedPath(2019, model.Pitching))

			Convey("Then identity columns lead and innings use native notation", func() {
				So(rows, ShouldHaveLength, 2)
				So(rows[0][:3], ShouldResemble, []string{"player_id", "name_full", "primary_position"})
				header := rows[0]
				for i, col := range header {
					switch col {
					case "ip":
						So(rows[1][i], ShouldEqual, "8.1")
					case "er":
						So(rows[1][i], ShouldEqual, "3")
					case "sv":
						So(rows[1][i], ShouldEqual, "0")
					}
				}
			})
		})
	})
}

func TestWriteRankings(t *testing.T) {
	Convey("Given ranked pitching tables", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		tables := pitchingTables()

		Convey("When exported as CSV and JSON", func() {
			store := filestore.New(filepath.Join(dir, "data"), filepath.Join(dir, "rankings"))
			So(store.WriteRankings(ctx, 2019, model.Pitching, tables), ShouldBeNil)

			Convey("Then one CSV per group should exist in rank order", func() {
				path := store.RankingPath(2019, model.Pitching, "all", filestore.CSV)
				So(path, ShouldEndWith, filepath.Join("rankings", "2019", "pitching-rankings-2019-all.csv"))
				rows := readCSV(t, path)
				So(rows, ShouldHaveLength, 3)
				So(rows[0], ShouldResemble, []string{"rank", "player_id", "name_full", "primary_position", "w", "so", "sv_hld", "era", "whip", "score"})
				So(rows[1][1], ShouldEqual, "p1")
				So(rows[1][9], ShouldEqual, "0.800000")
				_, err := os.Stat(store.RankingPath(2019, model.Pitching, "SP", filestore.CSV))
				So(err, ShouldBeNil)
			})

			Convey("Then the JSON should decode back into the table", func() {
				body, err := os.ReadFile(store.RankingPath(2019, model.Pitching, "SP", filestore.JSON))
				So(err, ShouldBeNil)
				var back types.RankedTable
				So(sonic.Unmarshal(body, &back), ShouldBeNil)
				So(back.Group, ShouldEqual, "SP")
				So(back.Entries, ShouldHaveLength, 1)
				So(back.Entries[0].PlayerID, ShouldEqual, "p2")
			})
		})

		Convey("When exported as a workbook", func() {
			store := filestore.New(filepath.Join(dir, "data"), filepath.Join(dir, "rankings"),
				filestore.WithFormats(filestore.XLSX))
			So(store.WriteRankings(ctx, 2019, model.Pitching, tables), ShouldBeNil)

			Convey("Then each group should be a sheet", func() {
				wb, err := excelize.OpenFile(store.WorkbookPath(2019, model.Pitching))
				So(err, ShouldBeNil)
				defer func() { _ = wb.Close() }()
				So(wb.GetSheetList(), ShouldResemble, []string{"all", "SP"})
				rows, err := wb.GetRows("all")
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 3)
				So(rows[0][0], ShouldEqual, "rank")
				So(rows[2][1], ShouldEqual, "p2")
			})

			Convey("Then no CSV should be written", func() {
				_, err := os.Stat(store.RankingPath(2019, model.Pitching, "all", filestore.CSV))
				So(os.IsNotExist(err), ShouldBeTrue)
			})
		})
	})
}

func hiddenFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var out []string
	for _, e := range entries {
		if e.Name()[0] == '.' {
			out = append(out, e.Name())
		}
	}
	return out
}

func pitchingTable(players ...model.PlayerSeason) cleaning.Table {
	return cleaning.Table{Season: 2019, Domain: model.Pitching, Schema: schema.Pitching(), Players: players}
}

func TestExportsAreAllOrNothing(t *testing.T) {
	Convey("Given a directory squatting on the workbook path", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		store := filestore.New(filepath.Join(dir, "data"), filepath.Join(dir, "rankings"),
			filestore.WithFormats(filestore.CSV, filestore.XLSX))
		workbook := store.WorkbookPath(2019, model.Pitching)
		So(os.MkdirAll(workbook, 0o755), ShouldBeNil)

		Convey("When rankings are exported", func() {
			err := store.WriteRankings(ctx, 2019, model.Pitching, pitchingTables())

			Convey("Then the export fails and no CSV is left behind", func() {
				So(errors.Is(err, filestore.ErrTargetIsDir), ShouldBeTrue)
				for _, group := range []string{"all", "SP"} {
					_, statErr := os.Stat(store.RankingPath(2019, model.Pitching, group, filestore.CSV))
					So(os.IsNotExist(statErr), ShouldBeTrue)
				}
				So(hiddenFiles(t, filepath.Dir(workbook)), ShouldBeEmpty)
			})
		})

		Convey("When a domain was exported before", func() {
			first := filestore.New(filepath.Join(dir, "data"), filepath.Join(dir, "rankings"))
			old := pitchingTable(model.PlayerSeason{PlayerID: "old", Counts: map[string]int{}, Reals: map[string]float64{"ip": 1}})
			So(first.WriteDomain(ctx, old, pitchingTables()[:1]), ShouldBeNil)
			before := readCSV(t, store.RankingPath(2019, model.Pitching, "all", filestore.CSV))

			fresh := pitchingTable(model.PlayerSeason{PlayerID: "new", Counts: map[string]int{}, Reals: map[string]float64{"ip": 2}})
			tables := pitchingTables()
			tables[0].Entries = tables[0].Entries[:1]
			err := store.WriteDomain(ctx, fresh, tables)

			Convey("Then a failed rerun keeps every earlier file", func() {
				So(err, ShouldNotBeNil)
				cleaned := readCSV(t, store.CleanedPath(2019, model.Pitching))
				So(cleaned[1][0], ShouldEqual, "old")
				So(readCSV(t, store.RankingPath(2019, model.Pitching, "all", filestore.CSV)), ShouldResemble, before)
				_, statErr := os.Stat(store.RankingPath(2019, model.Pitching, "SP", filestore.CSV))
				So(os.IsNotExist(statErr), ShouldBeTrue)
				So(hiddenFiles(t, filepath.Dir(workbook)), ShouldBeEmpty)
				So(hiddenFiles(t, filepath.Join(dir, "data")), ShouldBeEmpty)
			})
		})
	})

	Convey("Given a store that can write everything", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		store := filestore.New(filepath.Join(dir, "data"), filepath.Join(dir, "rankings"))
		table := pitchingTable(model.PlayerSeason{PlayerID: "p1", Counts: map[string]int{}, Reals: map[string]float64{"ip": 3}})

		Convey("When a domain is exported", func() {
			So(store.WriteDomain(ctx, table, pitchingTables()), ShouldBeNil)

			Convey("Then the cleaned table and every ranking are in place", func() {
				So(readCSV(t, store.CleanedPath(2019, model.Pitching))[1][0], ShouldEqual, "p1")
				for _, group := range []string{"all", "SP"} {
					for _, f := range []filestore.Format{filestore.CSV, filestore.JSON} {
						_, err := os.Stat(store.RankingPath(2019, model.Pitching, group, f))
						So(err, ShouldBeNil)
					}
				}
				So(hiddenFiles(t, filepath.Join(dir, "rankings", "2019")), ShouldBeEmpty)
			})
		})
	})
}

func TestUndefinedStatCells(t *testing.T) {
	Convey("Given a hitter whose batting average is undefined", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		store := filestore.New(filepath.Join(dir, "data"), filepath.Join(dir, "rankings"))
		table := types.RankedTable{
			TableKey: types.TableKey{Season: 2019, Domain: "hitting", Group: "all"},
			Stats:    []string{"sb", "ba"},
			Entries: []types.Entry{
				{Rank: 1, PlayerID: "runner", Position: "6", Normalized: map[string]float64{"sb": 1}, Score: 1},
			},
		}

		Convey("When the ranking is exported", func() {
			So(store.WriteRankings(ctx, 2019, model.Hitting, []types.RankedTable{table}), ShouldBeNil)

			Convey("Then the cell is left empty", func() {
				rows := readCSV(t, store.RankingPath(2019, model.Hitting, "all", filestore.CSV))
				So(rows[1][4], ShouldEqual, "1.000000")
				So(rows[1][5], ShouldEqual, "")
			})
		})
	})
}

func TestParseFormats(t *testing.T) {
	Convey("Given export format names", t, func() {
		formats, err := filestore.ParseFormats([]string{"CSV", " xlsx "})
		So(err, ShouldBeNil)
		So(formats, ShouldResemble, []filestore.Format{filestore.CSV, filestore.XLSX})

		_, err = filestore.ParseFormats([]string{"parquet"})
		So(err, ShouldNotBeNil)
	})
}
