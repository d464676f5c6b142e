// Package schema describes the column layout of each statistical domain so a
// single cleaning and scoring pipeline can serve both hitting and pitching.
package schema

import (
	"errors"
	"fmt"

	"github.com/okian/seasonrank/internal/domain/model"
)

// ErrInvalidSchema marks a descriptor that cannot drive the pipeline.
var ErrInvalidSchema = errors.New("invalid schema")

// Kind is the storage class of a summable field.
type Kind int

// Field kinds.
const (
	// Count is a whole-number counting stat.
	Count Kind = iota
	// Innings is an innings-pitched value in native notation, summed as a real.
	Innings
)

// Direction says whether a higher or lower raw value is better.
type Direction int

// Directions.
const (
	Maximize Direction = iota
	Minimize
)

func (d Direction) String() string {
	if d == Minimize {
		return "minimize"
	}
	return "maximize"
}

// Field is a summable column.
type Field struct {
	Name string
	Kind Kind
	// Context fields are summed and kept for grouping but never scored and
	// do not count towards the "observation present" check.
	Context bool
}

// Rate derives a statistic from summed columns. Inputs are dropped once the
// rate exists.
type Rate struct {
	Name   string
	Inputs []string
	// Denominator, when set, must be non-zero for the rate to be defined.
	Denominator string
	// Optional rates leave players with a zero denominator in the table; the
	// rate is simply undefined for them. Required rates exclude such players.
	Optional bool
	Compute  func(p model.PlayerSeason) float64
}

// Defined reports whether the rate has a non-zero denominator for p.
func (r Rate) Defined(p model.PlayerSeason) bool {
	if r.Denominator == "" {
		return true
	}
	v, _ := p.Float(r.Denominator)
	return v != 0
}

// Schema is the descriptor for one domain.
type Schema struct {
	Domain model.Domain
	// Identity fields are carried through aggregation unchanged.
	Identity []string
	// Dropped identity fields are discarded before aggregation.
	Dropped  []string
	Summable []Field
	Rates    []Rate
	// Stats is the ordered list of scored statistics after rate derivation.
	Stats      []string
	Directions map[string]Direction
}

// Observed returns the names of summable, non-context fields.
func (s Schema) Observed() []string {
	out := make([]string, 0, len(s.Summable))
	for _, f := range s.Summable {
		if !f.Context {
			out = append(out, f.Name)
		}
	}
	return out
}

// Denominators returns the fields that must be non-zero for a player to be
// ranked at all, taken from the required rates.
func (s Schema) Denominators() []string {
	var out []string
	seen := map[string]bool{}
	for _, r := range s.Rates {
		if r.Denominator != "" && !r.Optional && !seen[r.Denominator] {
			seen[r.Denominator] = true
			out = append(out, r.Denominator)
		}
	}
	return out
}

// Validate checks the descriptor is internally consistent.
func (s Schema) Validate() error {
	fields := make(map[string]Kind, len(s.Summable))
	for _, f := range s.Summable {
		if _, dup := fields[f.Name]; dup {
			return fmt.Errorf("%w: %s: duplicate field %q", ErrInvalidSchema, s.Domain, f.Name)
		}
		fields[f.Name] = f.Kind
	}
	derived := map[string]bool{}
	for _, r := range s.Rates {
		if r.Compute == nil {
			return fmt.Errorf("%w: %s: rate %q has no formula", ErrInvalidSchema, s.Domain, r.Name)
		}
		for _, in := range r.Inputs {
			if _, ok := fields[in]; !ok {
				return fmt.Errorf("%w: %s: rate %q uses unknown field %q", ErrInvalidSchema, s.Domain, r.Name, in)
			}
		}
		derived[r.Name] = true
	}
	if len(s.Stats) == 0 {
		return fmt.Errorf("%w: %s: no scored stats", ErrInvalidSchema, s.Domain)
	}
	for _, name := range s.Stats {
		if _, ok := s.Directions[name]; !ok {
			return fmt.Errorf("%w: %s: stat %q has no direction", ErrInvalidSchema, s.Domain, name)
		}
		if _, ok := fields[name]; !ok && !derived[name] {
			return fmt.Errorf("%w: %s: stat %q is neither summed nor derived", ErrInvalidSchema, s.Domain, name)
		}
	}
	return nil
}

// For returns the built-in schema for domain d.
func For(d model.Domain) (Schema, error) {
	switch d {
	case model.Hitting:
		return Hitting(), nil
	case model.Pitching:
		return Pitching(), nil
	default:
		return Schema{}, fmt.Errorf("%w: unknown domain %q", ErrInvalidSchema, d)
	}
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
