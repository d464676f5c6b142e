// Package filestore reads raw season rows and writes cleaned tables and
// ranking exports under the data and rankings directories.
package filestore

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/okian/seasonrank/internal/domain/cleaning"
	"github.com/okian/seasonrank/internal/domain/model"
	"github.com/okian/seasonrank/internal/domain/types"
	"github.com/okian/seasonrank/pkg/logger"
)

// Store is a directory-backed row source and ranking sink.
type Store struct {
	dataDir     string
	rankingsDir string
	formats     []Format
	logger      logger.Logger
}

// New creates a Store. CSV and JSON rankings are written by default.
func New(dataDir, rankingsDir string, opts ...Option) *Store {
	s := &Store{
		dataDir:     dataDir,
		rankingsDir: rankingsDir,
		formats:     []Format{CSV, JSON},
		logger:      logger.Get(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RawPath is data/{domain}-stats-{season}.json.
func (s *Store) RawPath(season int, d model.Domain) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("%s-stats-%d.json", d, season))
}

// CleanedPath is data/{domain}-stats-{season}.csv.
func (s *Store) CleanedPath(season int, d model.Domain) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("%s-stats-%d.csv", d, season))
}

// RankingPath is rankings/{season}/{domain}-rankings-{season}-{group}.{ext}.
func (s *Store) RankingPath(season int, d model.Domain, group string, f Format) string {
	return filepath.Join(s.rankingsDir, fmt.Sprint(season),
		fmt.Sprintf("%s-rankings-%d-%s.%s", d, season, group, f))
}

// WorkbookPath is rankings/{season}/{domain}-rankings-{season}.xlsx.
func (s *Store) WorkbookPath(season int, d model.Domain) string {
	return filepath.Join(s.rankingsDir, fmt.Sprint(season),
		fmt.Sprintf("%s-rankings-%d.%s", d, season, XLSX))
}

// WriteDomain stores the cleaned table and every ranking export of one
// season and domain. Either all of them replace the previous files or none
// does.
func (s *Store) WriteDomain(ctx context.Context, table cleaning.Table, tables []types.RankedTable) error {
	var b batch
	if err := s.stageCleaned(ctx, &b, table); err != nil {
		b.discard()
		return err
	}
	if err := s.stageRankings(ctx, &b, table.Season, table.Domain, tables); err != nil {
		b.discard()
		return err
	}
	if err := b.commit(ctx); err != nil {
		return err
	}
	s.logExported(ctx, table.Season, table.Domain, tables)
	return nil
}
