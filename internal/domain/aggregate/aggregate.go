// Package aggregate collapses per-stint records into one row per player.
package aggregate

import (
	"fmt"
	"math"

	"github.com/okian/seasonrank/internal/domain/model"
	"github.com/okian/seasonrank/internal/domain/schema"
)

// Record is one team-stint after its cells have been decoded.
// A summable field absent from Values was missing in the source.
type Record struct {
	Index           int
	PlayerID        string
	NameFull        string
	PrimaryPosition string
	Values          map[string]float64
}

// Result is the outcome of one aggregation pass.
type Result struct {
	Players []model.PlayerSeason
	// Discarded counts records with no observed stat at all.
	Discarded int
	// Drifted lists players whose identity fields changed between stints
	// (only populated by the lenient policies).
	Drifted []string
}

// Aggregator sums stints per player according to a schema.
type Aggregator struct {
	schema schema.Schema
	policy IdentityPolicy
}

// New creates an Aggregator for s.
func New(s schema.Schema, opts ...Option) *Aggregator {
	a := &Aggregator{schema: s, policy: LastRowWins}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Policy returns the configured identity drift policy.
func (a *Aggregator) Policy() IdentityPolicy { return a.policy }

type identity struct {
	name     string
	position string
}

type accumulator struct {
	first   identity
	current identity
	drifted bool
	stints  int
	sums    map[string]float64
}

// Aggregate returns one PlayerSeason per distinct PlayerID, in order of first
// appearance. Records are not modified.
func (a *Aggregator) Aggregate(records []Record) (Result, error) {
	observed := a.schema.Observed()
	order := make([]string, 0, len(records))
	acc := make(map[string]*accumulator, len(records))
	res := Result{}

	for _, rec := range records {
		if isEmpty(rec, observed) {
			res.Discarded++
			continue
		}
		id := identity{name: rec.NameFull, position: rec.PrimaryPosition}
		cur, ok := acc[rec.PlayerID]
		if !ok {
			cur = &accumulator{first: id, current: id, sums: make(map[string]float64, len(a.schema.Summable))}
			acc[rec.PlayerID] = cur
			order = append(order, rec.PlayerID)
		} else if id != cur.current {
			if a.policy == Strict {
				return Result{}, &DuplicateIdentityError{
					PlayerID: rec.PlayerID,
					Rows:     cur.stints + 1,
					Detail: fmt.Sprintf("identity changed between stints: %q/%q then %q/%q (row %d)",
						cur.current.name, cur.current.position, id.name, id.position, rec.Index),
				}
			}
			cur.drifted = true
			cur.current = id
		}
		cur.stints++
		for _, f := range a.schema.Summable {
			if v, ok := rec.Values[f.Name]; ok {
				cur.sums[f.Name] += v
			}
		}
	}

	res.Players = make([]model.PlayerSeason, 0, len(order))
	for _, pid := range order {
		cur := acc[pid]
		id := cur.current
		if a.policy == FirstRowWins {
			id = cur.first
		}
		if cur.drifted {
			res.Drifted = append(res.Drifted, pid)
		}
		res.Players = append(res.Players, a.build(pid, id, cur.sums))
	}

	if err := VerifyUnique(res.Players); err != nil {
		return Result{}, err
	}
	return res, nil
}

func (a *Aggregator) build(pid string, id identity, sums map[string]float64) model.PlayerSeason {
	p := model.PlayerSeason{
		PlayerID:        pid,
		NameFull:        id.name,
		PrimaryPosition: id.position,
		Counts:          make(map[string]int, len(a.schema.Summable)),
		Reals:           make(map[string]float64),
	}
	for _, f := range a.schema.Summable {
		v := sums[f.Name]
		if f.Kind == schema.Innings {
			p.Reals[f.Name] = v
			continue
		}
		p.Counts[f.Name] = int(math.Round(v))
	}
	return p
}

func isEmpty(rec Record, observed []string) bool {
	for _, name := range observed {
		if _, ok := rec.Values[name]; ok {
			return false
		}
	}
	return true
}

// VerifyUnique fails with DuplicateIdentityError when a PlayerID occurs more
// than once in players.
func VerifyUnique(players []model.PlayerSeason) error {
	seen := make(map[string]int, len(players))
	for _, p := range players {
		seen[p.PlayerID]++
	}
	if len(seen) == len(players) {
		return nil
	}
	for _, p := range players {
		if n := seen[p.PlayerID]; n > 1 {
			return &DuplicateIdentityError{
				PlayerID: p.PlayerID,
				Rows:     n,
				Detail:   fmt.Sprintf("%d distinct players across %d rows", len(seen), len(players)),
			}
		}
	}
	return nil
}
