package service

import (
	"github.com/okian/seasonrank/internal/adapters/repository"
	"github.com/okian/seasonrank/internal/domain/aggregate"
	"github.com/okian/seasonrank/internal/domain/model"
	"github.com/okian/seasonrank/internal/domain/schema"
	"github.com/okian/seasonrank/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the repository ranked tables are published to.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithSink adds an output for cleaned tables and rankings.
func WithSink(sink Sink) Option {
	return func(s *Service) {
		if sink != nil {
			s.sinks = append(s.sinks, sink)
		}
	}
}

// WithIdentityPolicy sets how identity drift between stints is resolved.
func WithIdentityPolicy(p aggregate.IdentityPolicy) Option {
	return func(s *Service) {
		if p != "" {
			s.identityPolicy = p
		}
	}
}

// WithRoleThresholds sets the starter and reliever predicates.
func WithRoleThresholds(minStarts, minReliefAppearances int) Option {
	return func(s *Service) {
		if minStarts > 0 {
			s.minStarts = minStarts
		}
		if minReliefAppearances > 0 {
			s.minReliefAppearances = minReliefAppearances
		}
	}
}

// WithDirections overrides stat directions of one domain.
func WithDirections(d model.Domain, directions map[string]schema.Direction) Option {
	return func(s *Service) {
		if len(directions) > 0 {
			s.directions[d] = directions
		}
	}
}
