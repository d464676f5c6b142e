// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// Domain names one of the two statistical domains.
type Domain string

// Supported domains.
const (
	Hitting  Domain = "hitting"
	Pitching Domain = "pitching"
)

// Domains lists every supported domain in processing order.
func Domains() []Domain { return []Domain{Hitting, Pitching} }

// ParseDomain maps a case-insensitive name to a Domain.
func ParseDomain(s string) (Domain, error) {
	switch Domain(strings.ToLower(strings.TrimSpace(s))) {
	case Hitting:
		return Hitting, nil
	case Pitching:
		return Pitching, nil
	default:
		return "", fmt.Errorf("unknown domain %q", s)
	}
}

func (d Domain) String() string { return string(d) }

// Field names shared by the source feed and the file formats.
const (
	FieldPlayerID        = "player_id"
	FieldNameFull        = "name_full"
	FieldPrimaryPosition = "primary_position"
	FieldTeamID          = "team_id"
	FieldTeamName        = "team_full"
	// FieldRosterTeamName is the roster feed's spelling of the team name.
	FieldRosterTeamName = "team_name"
)

// Value is a raw stat cell kept in its exact textual form ("6.2", "12").
// An empty Value means the cell was missing or null.
type Value string

// IsMissing reports whether the cell carries no observation.
func (v Value) IsMissing() bool {
	s := strings.TrimSpace(string(v))
	return s == "" || s == "null"
}

// String returns the trimmed textual form.
func (v Value) String() string { return strings.TrimSpace(string(v)) }

// UnmarshalJSON accepts JSON strings, numbers and null without going through
// float64, so "6.1" stays "6.1".
func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*v = ""
	case b[0] == '"':
		var s string
		if err := sonic.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode value %s: %w", b, err)
		}
		*v = Value(strings.TrimSpace(s))
	default:
		*v = Value(b)
	}
	return nil
}

// MarshalJSON writes missing cells as null and everything else as a string.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsMissing() {
		return []byte("null"), nil
	}
	return sonic.Marshal(v.String())
}

// StatRow is one observation of a player for one team-stint in one season.
type StatRow struct {
	PlayerID        string
	NameFull        string
	PrimaryPosition string
	TeamID          string
	TeamName        string
	Stats           map[string]Value
}

// RowFromFields splits a flat source record into identity and stat cells.
func RowFromFields(fields map[string]Value) StatRow {
	row := StatRow{Stats: make(map[string]Value, len(fields))}
	for k, v := range fields {
		switch k {
		case FieldPlayerID:
			row.PlayerID = v.String()
		case FieldNameFull:
			row.NameFull = v.String()
		case FieldPrimaryPosition:
			row.PrimaryPosition = v.String()
		case FieldTeamID:
			row.TeamID = v.String()
		case FieldTeamName:
			row.TeamName = v.String()
		case FieldRosterTeamName:
			if row.TeamName == "" {
				row.TeamName = v.String()
			}
		default:
			row.Stats[k] = v
		}
	}
	return row
}

// Fields flattens the row back into a source record.
func (r StatRow) Fields() map[string]Value {
	out := make(map[string]Value, len(r.Stats)+5)
	for k, v := range r.Stats {
		out[k] = v
	}
	out[FieldPlayerID] = Value(r.PlayerID)
	out[FieldNameFull] = Value(r.NameFull)
	out[FieldPrimaryPosition] = Value(r.PrimaryPosition)
	if r.TeamID != "" {
		out[FieldTeamID] = Value(r.TeamID)
	}
	if r.TeamName != "" {
		out[FieldTeamName] = Value(r.TeamName)
	}
	return out
}

// Stat returns the raw cell for name; missing cells are empty.
func (r StatRow) Stat(name string) Value { return r.Stats[name] }

// PlayerSeason is the per-player record after stint consolidation.
type PlayerSeason struct {
	PlayerID        string
	NameFull        string
	PrimaryPosition string
	// Counts holds summed counting stats.
	Counts map[string]int
	// Reals holds summed real-valued stats (decoded innings pitched).
	Reals map[string]float64
}

// Float returns a stat as float64 regardless of whether it is a count or a real.
func (p PlayerSeason) Float(name string) (float64, bool) {
	if v, ok := p.Counts[name]; ok {
		return float64(v), true
	}
	v, ok := p.Reals[name]
	return v, ok
}

// Count returns a counting stat, zero when absent.
func (p PlayerSeason) Count(name string) int { return p.Counts[name] }

// SeasonRows is the raw input for one season.
type SeasonRows struct {
	Season   int
	Hitting  []StatRow
	Pitching []StatRow
}

// Rows returns the rows for domain d.
func (s SeasonRows) Rows(d Domain) []StatRow {
	if d == Pitching {
		return s.Pitching
	}
	return s.Hitting
}
