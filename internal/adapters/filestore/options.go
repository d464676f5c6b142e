package filestore

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/okian/seasonrank/pkg/logger"
)

// Format is a ranking export format.
type Format string

// Supported ranking formats.
const (
	CSV  Format = "csv"
	JSON Format = "json"
	XLSX Format = "xlsx"
)

// ParseFormats maps config strings to formats, rejecting unknown names.
func ParseFormats(names []string) ([]Format, error) {
	out := make([]Format, 0, len(names))
	for _, n := range names {
		switch f := Format(strings.ToLower(strings.TrimSpace(n))); f {
		case CSV, JSON, XLSX:
			out = append(out, f)
		default:
			return nil, errors.Newf("unknown export format %q", n)
		}
	}
	return out, nil
}

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithFormats selects the ranking export formats.
func WithFormats(formats ...Format) Option {
	return func(s *Store) {
		if len(formats) > 0 {
			s.formats = formats
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}
