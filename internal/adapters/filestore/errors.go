package filestore

import "github.com/cockroachdb/errors"

// Sentinel kinds for file store errors.
var (
	ErrRawNotFound = errors.New("raw stat file not found")
	ErrCorruptRaw  = errors.New("raw stat file is not a list of records")
	ErrTargetIsDir = errors.New("output path is a directory")
)
