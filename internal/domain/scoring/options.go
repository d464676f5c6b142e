package scoring

import "github.com/okian/seasonrank/internal/domain/schema"

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithDirections overrides directions for the named statistics.
func WithDirections(directions map[string]schema.Direction) Option {
	return func(s *Scorer) {
		for k, v := range directions {
			s.directions[k] = v
		}
	}
}
