package filestore

import (
	"context"
	"io"
	"os"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/okian/seasonrank/internal/domain/model"
	"github.com/okian/seasonrank/pkg/logger"
)

// WriteRaw stores rows as a JSON list of flat source records.
func (s *Store) WriteRaw(ctx context.Context, season int, d model.Domain, rows []model.StatRow) error {
	records := make([]map[string]model.Value, len(rows))
	for i, r := range rows {
		records[i] = r.Fields()
	}
	body, err := sonic.Marshal(records)
	if err != nil {
		return errors.Wrapf(err, "encode %s rows of %d", d, season)
	}
	path := s.RawPath(season, d)
	if err := writeAtomic(ctx, path, func(w io.Writer) error {
		_, err := w.Write(body)
		return err
	}); err != nil {
		return err
	}
	s.logger.Info(ctx, "raw rows written", logger.String("path", path), logger.Int("rows", len(rows)))
	return nil
}

// ReadRaw loads the raw rows of one season and domain.
func (s *Store) ReadRaw(ctx context.Context, season int, d model.Domain) ([]model.StatRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := s.RawPath(season, d)
	body, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Mark(errors.Wrapf(err, "%s", path), ErrRawNotFound)
		}
		return nil, errors.Wrapf(err, "read %s", path)
	}
	var records []map[string]model.Value
	if err := sonic.Unmarshal(body, &records); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "%s", path), ErrCorruptRaw)
	}
	rows := make([]model.StatRow, len(records))
	for i, rec := range records {
		rows[i] = model.RowFromFields(rec)
	}
	return rows, nil
}

// WriteSeason stores both domains of a season.
func (s *Store) WriteSeason(ctx context.Context, rows model.SeasonRows) error {
	for _, d := range model.Domains() {
		if err := s.WriteRaw(ctx, rows.Season, d, rows.Rows(d)); err != nil {
			return err
		}
	}
	return nil
}

// ReadSeason loads both domains of a season.
func (s *Store) ReadSeason(ctx context.Context, season int) (model.SeasonRows, error) {
	out := model.SeasonRows{Season: season}
	var err error
	if out.Hitting, err = s.ReadRaw(ctx, season, model.Hitting); err != nil {
		return model.SeasonRows{}, err
	}
	if out.Pitching, err = s.ReadRaw(ctx, season, model.Pitching); err != nil {
		return model.SeasonRows{}, err
	}
	return out, nil
}
