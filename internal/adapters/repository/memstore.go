package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/seasonrank/internal/domain/types"
	"github.com/okian/seasonrank/pkg/metrics"
)

type partition struct {
	season int
	domain string
}

// MemoryStore is an in-memory Store. Tables are immutable once published;
// a republish swaps the whole season/domain partition under the write lock,
// so readers never see a half-replaced partition.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[types.TableKey]types.RankedTable
	order  map[partition][]string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables: make(map[types.TableKey]types.RankedTable),
		order:  make(map[partition][]string),
	}
}

// Publish implements Store.
func (s *MemoryStore) Publish(ctx context.Context, season int, domain string, tables []types.RankedTable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	groups := make([]string, 0, len(tables))
	for _, t := range tables {
		if t.Season != season || t.Domain != domain {
			return fmt.Errorf("%w: %s into %d/%s", ErrMixedTables, t.TableKey, season, domain)
		}
		groups = append(groups, t.Group)
	}

	p := partition{season: season, domain: domain}
	s.mu.Lock()
	for _, g := range s.order[p] {
		delete(s.tables, types.TableKey{Season: season, Domain: domain, Group: g})
	}
	for _, t := range tables {
		s.tables[t.TableKey] = t
	}
	if len(groups) == 0 {
		delete(s.order, p)
	} else {
		s.order[p] = groups
	}
	count := len(s.tables)
	s.mu.Unlock()

	metrics.SetPublishedTables(count)
	return nil
}

// Table implements Store.
func (s *MemoryStore) Table(ctx context.Context, key types.TableKey) (types.RankedTable, error) {
	if err := ctx.Err(); err != nil {
		return types.RankedTable{}, err
	}
	s.mu.RLock()
	t, ok := s.tables[key]
	s.mu.RUnlock()
	if !ok {
		return types.RankedTable{}, fmt.Errorf("%w: %s", ErrTableNotFound, key)
	}
	return t, nil
}

// TopN implements Store.
func (s *MemoryStore) TopN(ctx context.Context, key types.TableKey, n int) ([]types.Entry, error) {
	if n <= 0 {
		return nil, ErrInvalidLimit
	}
	t, err := s.Table(ctx, key)
	if err != nil {
		return nil, err
	}
	return append([]types.Entry(nil), t.Top(n)...), nil
}

// Rank implements Store.
func (s *MemoryStore) Rank(ctx context.Context, key types.TableKey, playerID string) (types.Entry, error) {
	t, err := s.Table(ctx, key)
	if err != nil {
		return types.Entry{}, err
	}
	e, ok := t.Find(playerID)
	if !ok {
		return types.Entry{}, fmt.Errorf("%w: %s in %s", ErrNotFound, playerID, key)
	}
	return e, nil
}

// Groups implements Store.
func (s *MemoryStore) Groups(ctx context.Context, season int, domain string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	groups, ok := s.order[partition{season: season, domain: domain}]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %d/%s", ErrTableNotFound, season, domain)
	}
	return append([]string(nil), groups...), nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables)
}
