// Package scoring rescales each statistic of a comparability group into
// [0,1], applies its direction and averages the results into one composite
// score per player.
package scoring

import (
	"fmt"

	"github.com/okian/seasonrank/internal/domain/model"
	"github.com/okian/seasonrank/internal/domain/schema"
)

// degenerateValue is the normalized value of a statistic that does not vary
// within its group.
const degenerateValue = 0

// Row is one scored player.
type Row struct {
	Player model.PlayerSeason
	// Raw holds the derived, unscaled statistics. Rates that are undefined
	// for the player are absent here and in Normalized.
	Raw        map[string]float64
	Normalized map[string]float64
	Score      float64
}

// Scored is a scored comparability group. Rows keep input order.
type Scored struct {
	Key      string
	Stats    []string
	Rows     []Row
	Warnings []DegenerateGroupWarning
}

// Scorer scores groups of one domain.
type Scorer struct {
	schema     schema.Schema
	directions map[string]schema.Direction
}

// New creates a Scorer for s. WithDirections may override the schema's
// direction map; every scored stat must end up with a direction.
func New(s schema.Schema, opts ...Option) (*Scorer, error) {
	sc := &Scorer{schema: s, directions: make(map[string]schema.Direction, len(s.Directions))}
	for k, v := range s.Directions {
		sc.directions[k] = v
	}
	for _, opt := range opts {
		opt(sc)
	}
	for _, name := range s.Stats {
		if _, ok := sc.directions[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrNoDirection, name)
		}
	}
	return sc, nil
}

// Derive computes the scored statistics for p, replacing rate components by
// their rates. An undefined rate is left out.
func (s *Scorer) Derive(p model.PlayerSeason) map[string]float64 {
	rates := make(map[string]schema.Rate, len(s.schema.Rates))
	for _, r := range s.schema.Rates {
		rates[r.Name] = r
	}
	out := make(map[string]float64, len(s.schema.Stats))
	for _, name := range s.schema.Stats {
		if r, ok := rates[name]; ok {
			if r.Defined(p) {
				out[name] = r.Compute(p)
			}
			continue
		}
		out[name], _ = p.Float(name)
	}
	return out
}

// Score normalizes players against each other using per-group min and max.
func (s *Scorer) Score(key string, players []model.PlayerSeason) Scored {
	stats := s.schema.Stats
	res := Scored{Key: key, Stats: append([]string(nil), stats...), Rows: make([]Row, len(players))}
	if len(players) == 0 {
		return res
	}

	for i, p := range players {
		res.Rows[i] = Row{Player: p, Raw: s.Derive(p), Normalized: make(map[string]float64, len(stats))}
	}

	for _, name := range stats {
		lo, hi, ok := bounds(res.Rows, name)
		if !ok {
			continue
		}
		if hi == lo {
			res.Warnings = append(res.Warnings, DegenerateGroupWarning{Group: key, Stat: name, Value: lo})
			for i := range res.Rows {
				if _, has := res.Rows[i].Raw[name]; has {
					res.Rows[i].Normalized[name] = degenerateValue
				}
			}
			continue
		}
		span := hi - lo
		minimize := s.directions[name] == schema.Minimize
		for i := range res.Rows {
			v, has := res.Rows[i].Raw[name]
			if !has {
				continue
			}
			n := (v - lo) / span
			if minimize {
				n = 1 - n
			}
			res.Rows[i].Normalized[name] = n
		}
	}

	// The composite averages the statistics defined for the player.
	for i := range res.Rows {
		var sum float64
		for _, n := range res.Rows[i].Normalized {
			sum += n
		}
		if k := len(res.Rows[i].Normalized); k > 0 {
			res.Rows[i].Score = sum / float64(k)
		}
	}
	return res
}

// bounds returns the min and max of a statistic over the rows defining it;
// ok is false when no row does.
func bounds(rows []Row, name string) (lo, hi float64, ok bool) {
	for _, r := range rows {
		v, has := r.Raw[name]
		if !has {
			continue
		}
		if !ok {
			lo, hi, ok = v, v, true
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, ok
}
