package filestore

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/xuri/excelize/v2"

	"github.com/okian/seasonrank/internal/domain/model"
	"github.com/okian/seasonrank/internal/domain/types"
	"github.com/okian/seasonrank/pkg/logger"
)

// WriteRankings exports every ranked table of a season and domain in each
// configured format. No file is replaced unless every export was written.
func (s *Store) WriteRankings(ctx context.Context, season int, d model.Domain, tables []types.RankedTable) error {
	var b batch
	if err := s.stageRankings(ctx, &b, season, d, tables); err != nil {
		b.discard()
		return err
	}
	if err := b.commit(ctx); err != nil {
		return err
	}
	s.logExported(ctx, season, d, tables)
	return nil
}

func (s *Store) stageRankings(ctx context.Context, b *batch, season int, d model.Domain, tables []types.RankedTable) error {
	for _, f := range s.formats {
		var err error
		switch f {
		case CSV:
			err = s.eachTable(ctx, b, season, d, tables, f, writeRankingCSV)
		case JSON:
			err = s.eachTable(ctx, b, season, d, tables, f, writeRankingJSON)
		case XLSX:
			err = s.stageWorkbook(ctx, b, season, d, tables)
		default:
			err = errors.Newf("unknown export format %q", f)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) logExported(ctx context.Context, season int, d model.Domain, tables []types.RankedTable) {
	s.logger.Info(ctx, "rankings exported",
		logger.Int("season", season),
		logger.String("domain", d.String()),
		logger.Int("groups", len(tables)),
		logger.Any("formats", s.formats),
	)
}

func (s *Store) eachTable(ctx context.Context, b *batch, season int, d model.Domain, tables []types.RankedTable, f Format,
	write func(io.Writer, types.RankedTable) error,
) error {
	for _, t := range tables {
		path := s.RankingPath(season, d, t.Group, f)
		if err := b.stage(ctx, path, func(w io.Writer) error { return write(w, t) }); err != nil {
			return err
		}
	}
	return nil
}

func rankingHeader(t types.RankedTable) []string {
	header := []string{"rank", model.FieldPlayerID, model.FieldNameFull, model.FieldPrimaryPosition}
	header = append(header, t.Stats...)
	return append(header, "score")
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }

func writeRankingCSV(w io.Writer, t types.RankedTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rankingHeader(t)); err != nil {
		return err
	}
	for _, e := range t.Entries {
		rec := []string{strconv.Itoa(e.Rank), e.PlayerID, e.NameFull, e.Position}
		for _, stat := range t.Stats {
			cell := ""
			if v, ok := e.Normalized[stat]; ok {
				cell = formatFloat(v)
			}
			rec = append(rec, cell)
		}
		rec = append(rec, formatFloat(e.Score))
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeRankingJSON(w io.Writer, t types.RankedTable) error {
	body, err := sonic.Marshal(t)
	if err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

// stageWorkbook stages one workbook with a sheet per group, in table order.
func (s *Store) stageWorkbook(ctx context.Context, b *batch, season int, d model.Domain, tables []types.RankedTable) error {
	if len(tables) == 0 {
		return nil
	}
	wb := excelize.NewFile()
	defer func() { _ = wb.Close() }()

	for i, t := range tables {
		sheet := t.Group
		if i == 0 {
			if err := wb.SetSheetName(wb.GetSheetName(0), sheet); err != nil {
				return errors.Wrapf(err, "name sheet %s", sheet)
			}
		} else if _, err := wb.NewSheet(sheet); err != nil {
			return errors.Wrapf(err, "add sheet %s", sheet)
		}
		if err := fillSheet(wb, sheet, t); err != nil {
			return errors.Wrapf(err, "fill sheet %s", sheet)
		}
	}

	return b.stage(ctx, s.WorkbookPath(season, d), func(w io.Writer) error {
		_, err := wb.WriteTo(w)
		return err
	})
}

func fillSheet(wb *excelize.File, sheet string, t types.RankedTable) error {
	header := rankingHeader(t)
	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := wb.SetSheetRow(sheet, "A1", &row); err != nil {
		return err
	}
	for i, e := range t.Entries {
		row = row[:0]
		row = append(row, e.Rank, e.PlayerID, e.NameFull, e.Position)
		for _, stat := range t.Stats {
			if v, ok := e.Normalized[stat]; ok {
				row = append(row, v)
			} else {
				row = append(row, nil)
			}
		}
		row = append(row, e.Score)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
