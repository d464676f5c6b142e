package scoring

import (
	"errors"
	"fmt"
)

// ErrNoDirection reports a scored statistic without a direction.
var ErrNoDirection = errors.New("statistic has no direction")

// DegenerateGroupWarning notes a statistic whose minimum equals its maximum
// within a group. Every player gets the degenerate value for it; the run
// continues.
type DegenerateGroupWarning struct {
	Group string
	Stat  string
	Value float64
}

func (w DegenerateGroupWarning) String() string {
	return fmt.Sprintf("group %s: %s is constant (%g); normalized to 0", w.Group, w.Stat, w.Value)
}
