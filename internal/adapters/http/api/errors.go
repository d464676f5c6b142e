package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// opError tags an error with the handler operation that produced it.
type opError struct {
	op  string
	err error
}

func (e *opError) Error() string { return fmt.Sprintf("%s: %v", e.op, e.err) }
func (e *opError) Unwrap() error { return e.err }

// NewKind returns kind tagged with op, optionally detailed by a message.
func NewKind(op string, kind error, detail ...string) error {
	if len(detail) > 0 && detail[0] != "" {
		return &opError{op: op, err: fmt.Errorf("%w: %s", kind, detail[0])}
	}
	return &opError{op: op, err: kind}
}

// Wrap tags err with op. A nil err stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &opError{op: op, err: err}
}
