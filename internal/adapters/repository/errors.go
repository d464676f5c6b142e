package repository

import "errors"

// Sentinel kinds for leaderboard errors.
var (
	ErrNotFound      = errors.New("player not found")
	ErrTableNotFound = errors.New("ranked table not found")
	ErrInvalidLimit  = errors.New("invalid leaderboard limit")
	ErrMixedTables   = errors.New("tables belong to different season or domain")
)
