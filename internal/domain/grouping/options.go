package grouping

// Option applies a configuration option to the Grouper.
type Option func(*Grouper)

// WithMinStarts sets how many games started make a pitcher a starter.
func WithMinStarts(n int) Option {
	return func(g *Grouper) {
		if n > 0 {
			g.minStarts = n
		}
	}
}

// WithMinReliefAppearances sets how many non-start appearances make a
// pitcher a reliever.
func WithMinReliefAppearances(n int) Option {
	return func(g *Grouper) {
		if n > 0 {
			g.minReliefAppearances = n
		}
	}
}
