package schema

import "github.com/okian/seasonrank/internal/domain/model"

// Hitting stat names.
const (
	AtBats       = "ab"
	Runs         = "r"
	Hits         = "h"
	RunsBattedIn = "rbi"
	HomeRuns     = "hr"
	StolenBases  = "sb"

	BattingAverage = "ba"
)

// Hitting returns the hitting descriptor.
func Hitting() Schema {
	return Schema{
		Domain:   model.Hitting,
		Identity: []string{model.FieldNameFull, model.FieldPrimaryPosition},
		Dropped:  []string{model.FieldTeamID, model.FieldTeamName},
		Summable: []Field{
			{Name: AtBats}, {Name: Runs}, {Name: Hits},
			{Name: RunsBattedIn}, {Name: HomeRuns}, {Name: StolenBases},
		},
		Rates: []Rate{{
			Name:        BattingAverage,
			Inputs:      []string{Hits, AtBats},
			Denominator: AtBats,
			Optional:    true,
			Compute: func(p model.PlayerSeason) float64 {
				return ratio(float64(p.Count(Hits)), float64(p.Count(AtBats)))
			},
		}},
		Stats: []string{Runs, RunsBattedIn, HomeRuns, StolenBases, BattingAverage},
		Directions: map[string]Direction{
			Runs:           Maximize,
			RunsBattedIn:   Maximize,
			HomeRuns:       Maximize,
			StolenBases:    Maximize,
			BattingAverage: Maximize,
		},
	}
}
