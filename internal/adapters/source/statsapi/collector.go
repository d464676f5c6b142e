package statsapi

import (
	"context"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/okian/seasonrank/internal/domain/model"
	"github.com/okian/seasonrank/pkg/logger"
)

// pitcherPosition is the primary position code routed to pitching.
const pitcherPosition = 1

// Source is the subset of the lookup service the collector needs.
type Source interface {
	Teams(ctx context.Context, season int) ([]Record, error)
	Roster(ctx context.Context, teamID string) ([]Record, error)
	HittingStats(ctx context.Context, playerID string, season int) ([]Record, error)
	PitchingStats(ctx context.Context, playerID string, season int) ([]Record, error)
}

// Collector gathers the raw stat rows of a season.
type Collector struct {
	source      Source
	parallelism int
	logger      logger.Logger
}

// NewCollector creates a Collector issuing at most parallelism concurrent
// requests. The source's own rate limit still applies.
func NewCollector(source Source, parallelism int, l logger.Logger) *Collector {
	if parallelism < 1 {
		parallelism = 1
	}
	if l == nil {
		l = logger.Get()
	}
	return &Collector{source: source, parallelism: parallelism, logger: l}
}

// Collect fetches every team's roster, then every rostered player's
// per-stint statistics. Roster identity overrides the stat rows' own
// identity columns. Pitchers land in Pitching, everybody else in Hitting.
// Output order follows team order, then roster order, then stint order.
func (c *Collector) Collect(ctx context.Context, season int) (model.SeasonRows, error) {
	teams, err := c.source.Teams(ctx, season)
	if err != nil {
		return model.SeasonRows{}, errors.Wrapf(err, "teams of %d", season)
	}

	rosters := make([][]Record, len(teams))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallelism)
	for i, team := range teams {
		teamID := team["team_id"].String()
		if teamID == "" {
			continue
		}
		g.Go(func() error {
			roster, err := c.source.Roster(gctx, teamID)
			if err != nil {
				return errors.Wrapf(err, "roster of team %s", teamID)
			}
			rosters[i] = roster
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.SeasonRows{}, err
	}

	var players []Record
	for _, roster := range rosters {
		players = append(players, roster...)
	}
	c.logger.Info(ctx, "rosters fetched",
		logger.Int("season", season),
		logger.Int("teams", len(teams)),
		logger.Int("players", len(players)),
	)

	stints := make([][]Record, len(players))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(c.parallelism)
	for i, player := range players {
		playerID := player[model.FieldPlayerID].String()
		if playerID == "" {
			continue
		}
		fetch := c.source.HittingStats
		if IsPitcher(player[model.FieldPrimaryPosition].String()) {
			fetch = c.source.PitchingStats
		}
		g.Go(func() error {
			rows, err := fetch(gctx, playerID, season)
			if err != nil {
				return errors.Wrapf(err, "stats of player %s", playerID)
			}
			stints[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.SeasonRows{}, err
	}

	out := model.SeasonRows{Season: season}
	for i, player := range players {
		if player[model.FieldPlayerID].String() == "" {
			continue
		}
		merged := mergeStints(player, stints[i])
		if IsPitcher(player[model.FieldPrimaryPosition].String()) {
			out.Pitching = append(out.Pitching, merged...)
		} else {
			out.Hitting = append(out.Hitting, merged...)
		}
	}
	c.logger.Info(ctx, "season rows collected",
		logger.Int("season", season),
		logger.Int("hitting_rows", len(out.Hitting)),
		logger.Int("pitching_rows", len(out.Pitching)),
	)
	return out, nil
}

// IsPitcher reports whether a primary position code is the pitcher code.
// Non-numeric codes ("O", "D") are never pitchers.
func IsPitcher(position string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(position))
	return err == nil && n == pitcherPosition
}

// mergeStints overlays roster identity on each stint. A player without stat
// rows still yields one identity-only row, which cleaning later drops.
func mergeStints(player Record, stints []Record) []model.StatRow {
	if len(stints) == 0 {
		return []model.StatRow{model.RowFromFields(copyRecord(player, nil))}
	}
	out := make([]model.StatRow, 0, len(stints))
	for _, stint := range stints {
		out = append(out, model.RowFromFields(copyRecord(stint, player)))
	}
	return out
}

func copyRecord(base, overlay Record) Record {
	out := make(Record, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}
