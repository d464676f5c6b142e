// Package service runs the season ranking pipeline and serves the
// published leaderboards to the HTTP API.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/okian/seasonrank/internal/adapters/repository"
	"github.com/okian/seasonrank/internal/domain/aggregate"
	"github.com/okian/seasonrank/internal/domain/cleaning"
	"github.com/okian/seasonrank/internal/domain/grouping"
	"github.com/okian/seasonrank/internal/domain/innings"
	"github.com/okian/seasonrank/internal/domain/model"
	"github.com/okian/seasonrank/internal/domain/ranking"
	"github.com/okian/seasonrank/internal/domain/schema"
	"github.com/okian/seasonrank/internal/domain/scoring"
	"github.com/okian/seasonrank/internal/domain/types"
	"github.com/okian/seasonrank/pkg/logger"
	"github.com/okian/seasonrank/pkg/metrics"
)

// ErrNotStarted is returned by pipeline calls before Start.
var ErrNotStarted = errors.New("service not started")

// Sink receives the output of a domain run once every group ranked. A
// failed write must leave the sink's previous output in place.
type Sink interface {
	WriteDomain(ctx context.Context, table cleaning.Table, tables []types.RankedTable) error
}

// DomainResult is the outcome of one season/domain run.
type DomainResult struct {
	Table    cleaning.Table
	Rankings []types.RankedTable
	Warnings []scoring.DegenerateGroupWarning
	// Excluded counts players dropped for a zero rate denominator.
	Excluded int
	// Dual counts pitchers ranked as both starter and reliever.
	Dual int
}

// SeasonResult collects the domain runs of one season.
type SeasonResult struct {
	RunID   string
	Season  int
	Domains map[model.Domain]DomainResult
}

type domainPipeline struct {
	cleaner *cleaning.Pipeline
	scorer  *scoring.Scorer
}

// Service implements the pipeline and the API read dependencies.
type Service struct {
	mu sync.RWMutex

	store   repository.Store
	sinks   []Sink
	grouper *grouping.Grouper

	// Configuration
	identityPolicy       aggregate.IdentityPolicy
	minStarts            int
	minReliefAppearances int
	directions           map[model.Domain]map[string]schema.Direction

	pipelines map[model.Domain]domainPipeline
	started   bool

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		identityPolicy:       aggregate.LastRowWins,
		minStarts:            1,
		minReliefAppearances: 1,
		directions:           map[model.Domain]map[string]schema.Direction{},
		store:                repository.NewMemoryStore(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start validates the schemas and builds one pipeline per domain.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.grouper = grouping.New(
		grouping.WithMinStarts(s.minStarts),
		grouping.WithMinReliefAppearances(s.minReliefAppearances),
	)

	s.pipelines = make(map[model.Domain]domainPipeline, len(model.Domains()))
	for _, d := range model.Domains() {
		sch, err := schema.For(d)
		if err != nil {
			return errors.Wrapf(err, "schema for %s", d)
		}
		cleaner, err := cleaning.New(sch, aggregate.WithIdentityPolicy(s.identityPolicy))
		if err != nil {
			return errors.Wrapf(err, "cleaning pipeline for %s", d)
		}
		scorer, err := scoring.New(sch, scoring.WithDirections(s.directions[d]))
		if err != nil {
			return errors.Wrapf(err, "scorer for %s", d)
		}
		s.pipelines[d] = domainPipeline{cleaner: cleaner, scorer: scorer}
	}

	s.started = true
	s.logger.Info(ctx, "ranking service started",
		logger.String("identity_policy", string(s.identityPolicy)),
		logger.Int("min_starts", s.minStarts),
		logger.Int("min_relief_appearances", s.minReliefAppearances),
		logger.Int("sinks", len(s.sinks)),
	)
	return nil
}

func (s *Service) pipeline(d model.Domain) (domainPipeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return domainPipeline{}, ErrNotStarted
	}
	p, ok := s.pipelines[d]
	if !ok {
		return domainPipeline{}, errors.Newf("unknown domain %q", d)
	}
	return p, nil
}

// ProcessSeason ranks both domains of a season. Domains are independent:
// a failing domain publishes nothing, the other still does, and the
// returned error combines every failure.
func (s *Service) ProcessSeason(ctx context.Context, rows model.SeasonRows) (SeasonResult, error) {
	res := SeasonResult{
		RunID:   uuid.NewString(),
		Season:  rows.Season,
		Domains: make(map[model.Domain]DomainResult, len(model.Domains())),
	}
	var combined error
	for _, d := range model.Domains() {
		dr, err := s.rankDomain(ctx, res.RunID, rows.Season, d, rows.Rows(d))
		if err != nil {
			combined = errors.CombineErrors(combined, err)
			continue
		}
		res.Domains[d] = dr
	}
	return res, combined
}

// RankDomain cleans, groups, scores and ranks one domain of one season,
// then publishes the tables to the store and every sink.
func (s *Service) RankDomain(ctx context.Context, season int, d model.Domain, rows []model.StatRow) (DomainResult, error) {
	return s.rankDomain(ctx, uuid.NewString(), season, d, rows)
}

func (s *Service) rankDomain(ctx context.Context, runID string, season int, d model.Domain, rows []model.StatRow) (DomainResult, error) {
	start := time.Now()
	log := s.log().With(
		logger.String("run_id", runID),
		logger.Int("season", season),
		logger.String("domain", d.String()),
	)

	res, err := s.run(ctx, log, season, d, rows)
	elapsed := float64(time.Since(start).Milliseconds())
	if err != nil {
		kind := failureKind(err)
		metrics.RecordFailure(d.String(), kind)
		metrics.RecordRun(d.String(), "failed", elapsed)
		log.Error(ctx, "domain run failed", logger.String("kind", kind), logger.Error(err))
		return DomainResult{}, errors.Wrapf(err, "season %d %s", season, d)
	}
	metrics.RecordRun(d.String(), "ok", elapsed)
	log.Info(ctx, "domain ranked",
		logger.Int("players", len(res.Table.Players)),
		logger.Int("groups", len(res.Rankings)),
		logger.Int("excluded", res.Excluded),
		logger.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

func (s *Service) run(ctx context.Context, log logger.Logger, season int, d model.Domain, rows []model.StatRow) (DomainResult, error) {
	p, err := s.pipeline(d)
	if err != nil {
		return DomainResult{}, err
	}

	metrics.RecordRowsIngested(d.String(), len(rows))
	table, err := p.cleaner.Clean(ctx, season, rows)
	if err != nil {
		return DomainResult{}, err
	}
	metrics.RecordRowsDiscarded(d.String(), "empty", table.Discarded)
	metrics.RecordIdentityDrift(d.String(), len(table.Drifted))
	metrics.SetPlayersAggregated(season, d.String(), len(table.Players))
	if len(table.Drifted) > 0 {
		log.Warn(ctx, "identity drift between stints",
			logger.String("policy", string(s.identityPolicy)),
			logger.Any("players", table.Drifted),
		)
	}

	grouped := s.grouper.Group(table.Schema, table.Players)
	metrics.RecordRowsDiscarded(d.String(), "zero_denominator", grouped.Excluded)
	if d == model.Pitching && grouped.Dual > 0 {
		metrics.RecordDualRole(grouped.Dual)
		log.Warn(ctx, "pitchers ranked as both starter and reliever", logger.Int("count", grouped.Dual))
	}

	res := DomainResult{Table: table, Excluded: grouped.Excluded, Dual: grouped.Dual}
	res.Rankings = make([]types.RankedTable, 0, len(grouped.Groups))
	for _, g := range grouped.Groups {
		if err := ctx.Err(); err != nil {
			return DomainResult{}, err
		}
		key := types.TableKey{Season: season, Domain: d.String(), Group: g.Key}
		scored := p.scorer.Score(g.Key, g.Players)
		for _, w := range scored.Warnings {
			metrics.RecordDegenerateStat(d.String(), w.Stat)
			log.Warn(ctx, "degenerate statistic in group",
				logger.String("group", w.Group),
				logger.String("stat", w.Stat),
				logger.Float64("value", w.Value),
			)
		}
		res.Warnings = append(res.Warnings, scored.Warnings...)
		res.Rankings = append(res.Rankings, ranking.Rank(key, scored))
		metrics.RecordGroupRanked(d.String())
	}

	if err := s.publish(ctx, table, res.Rankings); err != nil {
		return DomainResult{}, err
	}
	return res, nil
}

// publish hands a complete domain run to the sinks and then the store.
// Nothing reaches the store unless every sink succeeded.
func (s *Service) publish(ctx context.Context, table cleaning.Table, tables []types.RankedTable) error {
	for _, sink := range s.sinks {
		if err := sink.WriteDomain(ctx, table, tables); err != nil {
			return errors.Mark(errors.Wrapf(err, "write %s outputs", table.Domain), errSink)
		}
	}
	return s.store.Publish(ctx, table.Season, table.Domain.String(), tables)
}

var errSink = errors.New("sink failure")

func failureKind(err error) string {
	switch {
	case errors.Is(err, innings.ErrInvalidEncoding):
		return "invalid_encoding"
	case errors.Is(err, aggregate.ErrDuplicateIdentity):
		return "duplicate_identity"
	case errors.Is(err, cleaning.ErrInvalidCount):
		return "invalid_count"
	case errors.Is(err, cleaning.ErrMissingPlayerID):
		return "missing_player_id"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, errSink):
		return "sink"
	default:
		return "internal"
	}
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.logger == nil {
		return logger.Get()
	}
	return s.logger
}

// Leaderboard returns the top n entries of a published table.
func (s *Service) Leaderboard(ctx context.Context, key types.TableKey, n int) ([]types.Entry, error) {
	return s.repo().TopN(ctx, key, n)
}

// Rank returns a player's entry in a published table.
func (s *Service) Rank(ctx context.Context, key types.TableKey, playerID string) (types.Entry, error) {
	return s.repo().Rank(ctx, key, playerID)
}

// Groups lists the published groups of a season and domain.
func (s *Service) Groups(ctx context.Context, season int, domain string) ([]string, error) {
	return s.repo().Groups(ctx, season, domain)
}

// Table returns a whole published table.
func (s *Service) Table(ctx context.Context, key types.TableKey) (types.RankedTable, error) {
	return s.repo().Table(ctx, key)
}

func (s *Service) repo() repository.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}
