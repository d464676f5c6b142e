package innings

import (
	"errors"
	"fmt"
)

// ErrInvalidEncoding is the sentinel matched by every InvalidEncodingError.
var ErrInvalidEncoding = errors.New("invalid innings encoding")

// InvalidEncodingError reports an innings value outside the 0/1/2 convention.
type InvalidEncodingError struct {
	Value  string
	Reason string
}

func (e *InvalidEncodingError) Error() string {
	return fmt.Sprintf("invalid innings value %q: %s", e.Value, e.Reason)
}

// Is lets callers match with errors.Is(err, ErrInvalidEncoding).
func (e *InvalidEncodingError) Is(target error) bool { return target == ErrInvalidEncoding }
