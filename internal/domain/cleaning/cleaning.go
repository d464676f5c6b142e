// Package cleaning turns raw stat rows into a validated one-row-per-player
// table: empty stints are dropped, team columns discarded, innings decoded,
// stints summed and uniqueness asserted.
package cleaning

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/okian/seasonrank/internal/domain/aggregate"
	"github.com/okian/seasonrank/internal/domain/innings"
	"github.com/okian/seasonrank/internal/domain/model"
	"github.com/okian/seasonrank/internal/domain/schema"
)

// Table is a cleaned PlayerSeason table for one season and domain.
type Table struct {
	Season  int
	Domain  model.Domain
	Schema  schema.Schema
	Players []model.PlayerSeason
	// Ingested is the number of raw rows handed in.
	Ingested int
	// Discarded counts rows dropped because every observed stat was missing.
	Discarded int
	// Drifted lists players whose identity changed between stints.
	Drifted []string
}

// Pipeline cleans tables for one domain.
type Pipeline struct {
	schema     schema.Schema
	aggregator *aggregate.Aggregator
}

// New builds a Pipeline for s. Aggregator options (identity policy) pass through.
func New(s schema.Schema, opts ...aggregate.Option) (*Pipeline, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{schema: s, aggregator: aggregate.New(s, opts...)}, nil
}

// Schema returns the descriptor the pipeline was built with.
func (p *Pipeline) Schema() schema.Schema { return p.schema }

// Clean runs the full cleaning sequence. Any decoding or identity failure
// aborts the whole table.
func (p *Pipeline) Clean(ctx context.Context, season int, rows []model.StatRow) (Table, error) {
	if err := ctx.Err(); err != nil {
		return Table{}, err
	}
	t := Table{Season: season, Domain: p.schema.Domain, Schema: p.schema, Ingested: len(rows)}

	observed := p.schema.Observed()
	records := make([]aggregate.Record, 0, len(rows))
	for i, row := range rows {
		if allMissing(row, observed) {
			t.Discarded++
			continue
		}
		rec, err := p.decode(i, row)
		if err != nil {
			return Table{}, p.wrap(season, row.PlayerID, i, err)
		}
		records = append(records, rec)
	}

	res, err := p.aggregator.Aggregate(records)
	if err != nil {
		return Table{}, p.wrap(season, "", -1, err)
	}
	t.Discarded += res.Discarded
	t.Players = res.Players
	t.Drifted = res.Drifted
	return t, nil
}

// decode builds an aggregation record, keeping only the identity columns the
// rest of the pipeline needs.
func (p *Pipeline) decode(index int, row model.StatRow) (aggregate.Record, error) {
	if row.PlayerID == "" {
		return aggregate.Record{}, ErrMissingPlayerID
	}
	rec := aggregate.Record{
		Index:           index,
		PlayerID:        row.PlayerID,
		NameFull:        row.NameFull,
		PrimaryPosition: row.PrimaryPosition,
		Values:          make(map[string]float64, len(p.schema.Summable)),
	}
	for _, f := range p.schema.Summable {
		cell := row.Stat(f.Name)
		if cell.IsMissing() {
			continue
		}
		var (
			v   float64
			err error
		)
		switch f.Kind {
		case schema.Innings:
			v, err = innings.Decode(cell.String())
		default:
			v, err = parseCount(cell.String())
		}
		if err != nil {
			return aggregate.Record{}, &fieldError{field: f.Name, err: err}
		}
		rec.Values[f.Name] = v
	}
	return rec, nil
}

func (p *Pipeline) wrap(season int, playerID string, row int, err error) error {
	te := &TableError{Season: season, Domain: p.schema.Domain, PlayerID: playerID, Row: row, Err: err}
	var fe *fieldError
	if errors.As(err, &fe) {
		te.Field = fe.field
		if err == error(fe) {
			te.Err = fe.err
		}
	}
	var dup *aggregate.DuplicateIdentityError
	if errors.As(err, &dup) && te.PlayerID == "" {
		te.PlayerID = dup.PlayerID
	}
	return te
}

func allMissing(row model.StatRow, observed []string) bool {
	for _, name := range observed {
		if !row.Stat(name).IsMissing() {
			return false
		}
	}
	return true
}

func parseCount(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCount, s)
	}
	return float64(d.IntPart()), nil
}
