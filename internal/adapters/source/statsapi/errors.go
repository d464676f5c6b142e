package statsapi

import "github.com/cockroachdb/errors"

// Sentinel kinds for stats source errors.
var (
	ErrStatus    = errors.New("stats source returned an error status")
	ErrDecode    = errors.New("decode stats source payload")
	ErrTransient = errors.New("stats source transient failure")
)
