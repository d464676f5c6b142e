package filestore

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/okian/seasonrank/internal/domain/cleaning"
	"github.com/okian/seasonrank/internal/domain/innings"
	"github.com/okian/seasonrank/internal/domain/model"
	"github.com/okian/seasonrank/internal/domain/schema"
	"github.com/okian/seasonrank/pkg/logger"
)

// WriteCleaned stores a cleaned table as CSV: identity columns, then every
// summable stat in schema order. Innings go back to native notation.
func (s *Store) WriteCleaned(ctx context.Context, table cleaning.Table) error {
	var b batch
	if err := s.stageCleaned(ctx, &b, table); err != nil {
		b.discard()
		return err
	}
	if err := b.commit(ctx); err != nil {
		return err
	}
	s.logger.Debug(ctx, "cleaned table written",
		logger.String("path", s.CleanedPath(table.Season, table.Domain)),
		logger.Int("players", len(table.Players)))
	return nil
}

func (s *Store) stageCleaned(ctx context.Context, b *batch, table cleaning.Table) error {
	header := []string{model.FieldPlayerID, model.FieldNameFull, model.FieldPrimaryPosition}
	for _, f := range table.Schema.Summable {
		header = append(header, f.Name)
	}

	return b.stage(ctx, s.CleanedPath(table.Season, table.Domain), func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(header); err != nil {
			return err
		}
		for _, p := range table.Players {
			rec := []string{p.PlayerID, p.NameFull, p.PrimaryPosition}
			for _, f := range table.Schema.Summable {
				rec = append(rec, cleanedCell(p, f))
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

func cleanedCell(p model.PlayerSeason, f schema.Field) string {
	if f.Kind == schema.Innings {
		return innings.Encode(p.Reals[f.Name])
	}
	return strconv.Itoa(p.Count(f.Name))
}
