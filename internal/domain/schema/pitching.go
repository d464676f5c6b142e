package schema

import "github.com/okian/seasonrank/internal/domain/model"

// Pitching stat names.
const (
	Wins           = "w"
	Saves          = "sv"
	Holds          = "hld"
	Strikeouts     = "so"
	EarnedRuns     = "er"
	Walks          = "bb"
	HitsAllowed    = "h"
	InningsPitched = "ip"
	Games          = "g"
	GamesStarted   = "gs"

	EarnedRunAverage = "era"
	WHIP             = "whip"
	SavesPlusHolds   = "sv_hld"
)

const inningsPerGame = 9

// Pitching returns the pitching descriptor.
func Pitching() Schema {
	return Schema{
		Domain:   model.Pitching,
		Identity: []string{model.FieldNameFull, model.FieldPrimaryPosition},
		Dropped:  []string{model.FieldTeamID, model.FieldTeamName},
		Summable: []Field{
			{Name: Wins}, {Name: Saves}, {Name: Holds}, {Name: Strikeouts},
			{Name: EarnedRuns}, {Name: Walks}, {Name: HitsAllowed},
			{Name: InningsPitched, Kind: Innings},
			{Name: Games, Context: true},
			{Name: GamesStarted, Context: true},
		},
		Rates: []Rate{
			{
				Name:        EarnedRunAverage,
				Inputs:      []string{EarnedRuns, InningsPitched},
				Denominator: InningsPitched,
				Compute: func(p model.PlayerSeason) float64 {
					return ratio(float64(p.Count(EarnedRuns))*inningsPerGame, p.Reals[InningsPitched])
				},
			},
			{
				Name:        WHIP,
				Inputs:      []string{Walks, HitsAllowed, InningsPitched},
				Denominator: InningsPitched,
				Compute: func(p model.PlayerSeason) float64 {
					return ratio(float64(p.Count(Walks)+p.Count(HitsAllowed)), p.Reals[InningsPitched])
				},
			},
			{
				Name:   SavesPlusHolds,
				Inputs: []string{Saves, Holds},
				Compute: func(p model.PlayerSeason) float64 {
					return float64(p.Count(Saves) + p.Count(Holds))
				},
			},
		},
		Stats: []string{Wins, Strikeouts, SavesPlusHolds, EarnedRunAverage, WHIP},
		Directions: map[string]Direction{
			Wins:             Maximize,
			Strikeouts:       Maximize,
			SavesPlusHolds:   Maximize,
			EarnedRunAverage: Minimize,
			WHIP:             Minimize,
		},
	}
}
