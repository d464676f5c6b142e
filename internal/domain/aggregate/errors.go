package aggregate

import (
	"errors"
	"fmt"
)

// ErrDuplicateIdentity is the sentinel matched by every DuplicateIdentityError.
var ErrDuplicateIdentity = errors.New("duplicate player identity")

// DuplicateIdentityError reports that aggregation did not produce exactly one
// row per player.
type DuplicateIdentityError struct {
	PlayerID string
	Rows     int
	Detail   string
}

func (e *DuplicateIdentityError) Error() string {
	return fmt.Sprintf("duplicate identity for player %s (%d rows): %s", e.PlayerID, e.Rows, e.Detail)
}

// Is lets callers match with errors.Is(err, ErrDuplicateIdentity).
func (e *DuplicateIdentityError) Is(target error) bool { return target == ErrDuplicateIdentity }
