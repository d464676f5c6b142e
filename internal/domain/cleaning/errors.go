package cleaning

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okian/seasonrank/internal/domain/model"
)

// Sentinel kinds for cleaning errors.
var (
	ErrInvalidCount    = errors.New("counting stat is not a whole number")
	ErrMissingPlayerID = errors.New("row has no player id")
)

// TableError locates a fatal cleaning failure.
type TableError struct {
	Season   int
	Domain   model.Domain
	PlayerID string
	// Row is the index in the raw table, -1 when the failure is table-wide.
	Row   int
	Field string
	Err   error
}

func (e *TableError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "clean %s %d", e.Domain, e.Season)
	if e.PlayerID != "" {
		fmt.Fprintf(&b, " player %s", e.PlayerID)
	}
	if e.Row >= 0 {
		fmt.Fprintf(&b, " row %d", e.Row)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " field %s", e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *TableError) Unwrap() error { return e.Err }

type fieldError struct {
	field string
	err   error
}

func (e *fieldError) Error() string { return e.field + ": " + e.err.Error() }
func (e *fieldError) Unwrap() error { return e.err }
