// Package grouping partitions a cleaned table into comparability groups:
// fielding positions for hitters, starter/reliever roles for pitchers, plus
// one group holding everybody.
package grouping

import (
	"sort"
	"strconv"
	"strings"

	"github.com/okian/seasonrank/internal/domain/model"
	"github.com/okian/seasonrank/internal/domain/schema"
)

// Group keys with fixed meaning.
const (
	AllKey              = "all"
	OutfieldKey         = "OF"
	OutfieldUnspecified = "O"
	DesignatedHitterKey = "D"
	StarterKey          = "SP"
	RelieverKey         = "RP"
)

// Defaults for the role predicates.
const (
	defaultMinStarts            = 1
	defaultMinReliefAppearances = 1
)

// Group is one comparability class. Players keep table order.
type Group struct {
	Key     string
	Players []model.PlayerSeason
}

// Result holds the groups for one table.
type Result struct {
	// Groups lists the "all" group first, then the other keys ascending.
	Groups []Group
	// Excluded counts players dropped for a zero rate denominator.
	Excluded int
	// Dual counts pitchers that qualified as both starter and reliever.
	Dual int
}

// Grouper assigns players to groups.
type Grouper struct {
	minStarts            int
	minReliefAppearances int
}

// New creates a Grouper with configuration options.
func New(opts ...Option) *Grouper {
	g := &Grouper{
		minStarts:            defaultMinStarts,
		minReliefAppearances: defaultMinReliefAppearances,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ResolvePosition maps a fielding position code to its group key:
// corner and center outfield (7, 8, 9) and the unspecified outfield code
// collapse to OF; everything else is its own group.
func ResolvePosition(code string) string {
	code = strings.TrimSpace(code)
	if code == DesignatedHitterKey {
		return code
	}
	if code == OutfieldUnspecified {
		return OutfieldKey
	}
	if n, err := strconv.Atoi(code); err == nil && n >= 7 && n <= 9 {
		return OutfieldKey
	}
	return code
}

// IsStarter reports whether p made enough starts to rank among starters.
func (g *Grouper) IsStarter(p model.PlayerSeason) bool {
	return p.Count(schema.GamesStarted) >= g.minStarts
}

// IsReliever reports whether p made enough relief appearances. It is
// independent of IsStarter, so a swingman can satisfy both.
func (g *Grouper) IsReliever(p model.PlayerSeason) bool {
	return p.Count(schema.Games)-p.Count(schema.GamesStarted) >= g.minReliefAppearances
}

// Keys returns every group key p belongs to besides "all".
func (g *Grouper) Keys(d model.Domain, p model.PlayerSeason) []string {
	if d == model.Pitching {
		var keys []string
		if g.IsStarter(p) {
			keys = append(keys, StarterKey)
		}
		if g.IsReliever(p) {
			keys = append(keys, RelieverKey)
		}
		return keys
	}
	return []string{ResolvePosition(p.PrimaryPosition)}
}

// Group filters out players whose rate denominators are zero, then builds
// the groups.
func (g *Grouper) Group(s schema.Schema, players []model.PlayerSeason) Result {
	res := Result{}
	eligible := make([]model.PlayerSeason, 0, len(players))
	dens := s.Denominators()
	for _, p := range players {
		if hasZero(p, dens) {
			res.Excluded++
			continue
		}
		eligible = append(eligible, p)
	}

	byKey := map[string][]model.PlayerSeason{}
	for _, p := range eligible {
		keys := g.Keys(s.Domain, p)
		if len(keys) > 1 {
			res.Dual++
		}
		for _, k := range keys {
			byKey[k] = append(byKey[k], p)
		}
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	res.Groups = make([]Group, 0, len(keys)+1)
	res.Groups = append(res.Groups, Group{Key: AllKey, Players: eligible})
	for _, k := range keys {
		res.Groups = append(res.Groups, Group{Key: k, Players: byKey[k]})
	}
	return res
}

func hasZero(p model.PlayerSeason, fields []string) bool {
	for _, f := range fields {
		if v, _ := p.Float(f); v == 0 {
			return true
		}
	}
	return false
}
