package aggregate

import (
	"fmt"
	"strings"
)

// IdentityPolicy decides which identity fields survive when a player's
// stints disagree on name or position.
type IdentityPolicy string

// Identity policies.
const (
	LastRowWins  IdentityPolicy = "last_row_wins"
	FirstRowWins IdentityPolicy = "first_row_wins"
	// Strict rejects drift with a DuplicateIdentityError.
	Strict IdentityPolicy = "strict"
)

// ParseIdentityPolicy maps a config string to a policy; empty means LastRowWins.
func ParseIdentityPolicy(s string) (IdentityPolicy, error) {
	switch p := IdentityPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return LastRowWins, nil
	case LastRowWins, FirstRowWins, Strict:
		return p, nil
	default:
		return "", fmt.Errorf("unknown identity policy %q", s)
	}
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithIdentityPolicy sets the identity drift policy.
func WithIdentityPolicy(p IdentityPolicy) Option {
	return func(a *Aggregator) {
		if p != "" {
			a.policy = p
		}
	}
}
