// Package repository holds published ranked tables for the leaderboard API.
package repository

import (
	"context"

	"github.com/okian/seasonrank/internal/domain/types"
)

// Store provides read/write access to published rankings.
type Store interface {
	// Publish replaces every table of season and domain with tables.
	// Groups missing from tables are dropped.
	Publish(ctx context.Context, season int, domain string, tables []types.RankedTable) error

	// Table returns a whole ranked table.
	// Returns ErrTableNotFound if the key was never published.
	Table(ctx context.Context, key types.TableKey) (types.RankedTable, error)

	// TopN returns the top-N entries of a table ordered by rank.
	TopN(ctx context.Context, key types.TableKey, n int) ([]types.Entry, error)

	// Rank returns a player's entry within a table.
	// Returns ErrNotFound if the player is not ranked there.
	Rank(ctx context.Context, key types.TableKey, playerID string) (types.Entry, error)

	// Groups lists the published group keys of season and domain in
	// publish order.
	Groups(ctx context.Context, season int, domain string) ([]string, error)

	// Count returns the number of published tables.
	Count(ctx context.Context) int
}
