package main

import (
	"context"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/okian/seasonrank/internal/adapters/filestore"
	"github.com/okian/seasonrank/internal/adapters/http/api"
	"github.com/okian/seasonrank/internal/adapters/http/swagger"
	"github.com/okian/seasonrank/internal/adapters/repository"
	"github.com/okian/seasonrank/internal/adapters/source/statsapi"
	app "github.com/okian/seasonrank/internal/app"
	"github.com/okian/seasonrank/internal/config"
	"github.com/okian/seasonrank/internal/domain/aggregate"
	"github.com/okian/seasonrank/pkg/logger"
	"github.com/okian/seasonrank/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

const usage = `usage: seasonrank <command> [flags]

commands:
  fetch   download raw hitting and pitching rows for the configured seasons
  rank    clean, rank and export the configured seasons from raw files
  serve   rank the configured seasons, then serve the leaderboard API
`

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		_, _ = os.Stderr.WriteString("seasonrank: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	if len(args) == 0 {
		_, _ = io.WriteString(stderr, usage)
		return errors.New("missing command")
	}
	cmd, rest := args[0], args[1:]

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	seasons := fs.String("seasons", "", "comma separated seasons, overrides config")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	if *seasons != "" {
		if cfg.Seasons, err = parseSeasons(*seasons); err != nil {
			return err
		}
	}

	if err := logger.Init(logger.WithFormat(logger.Format(cfg.LogFormat))); err != nil {
		return errors.Wrap(err, "initialize logging")
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	switch cmd {
	case "fetch":
		return fetchSeasons(ctx, cfg, log)
	case "rank":
		_, err := rankSeasons(ctx, cfg, log)
		return err
	case "serve":
		return serve(ctx, cfg, log)
	default:
		_, _ = io.WriteString(stderr, usage)
		return errors.Newf("unknown command %q", cmd)
	}
}

func parseSeasons(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		season, err := strconv.Atoi(part)
		if err != nil || season < 1 {
			return nil, errors.Newf("invalid season %q", part)
		}
		out = append(out, season)
	}
	if len(out) == 0 {
		return nil, errors.New("no seasons given")
	}
	return out, nil
}

func newFileStore(cfg *config.Config, log logger.Logger) (*filestore.Store, error) {
	formats, err := filestore.ParseFormats(cfg.ExportFormats)
	if err != nil {
		return nil, err
	}
	return filestore.New(cfg.DataDir, cfg.RankingsDir, filestore.WithFormats(formats...), filestore.WithLogger(log)), nil
}

// forEachSeason runs fn for every configured season, at most
// cfg.Parallelism at a time. Seasons are independent; the first error is
// returned after all finished.
func forEachSeason(cfg *config.Config, fn func(season int) error) error {
	var g errgroup.Group
	g.SetLimit(cfg.Parallelism)
	for _, season := range cfg.Seasons {
		g.Go(func() error { return fn(season) })
	}
	return g.Wait()
}

func fetchSeasons(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	files, err := newFileStore(cfg, log)
	if err != nil {
		return err
	}
	client := statsapi.New(
		statsapi.WithBaseURL(cfg.SourceBaseURL),
		statsapi.WithTimeout(time.Duration(cfg.SourceTimeoutMS)*time.Millisecond),
		statsapi.WithRateLimit(cfg.SourceRPS, cfg.SourceBurst),
		statsapi.WithLogger(log.Named("statsapi")),
	)
	collector := statsapi.NewCollector(client, cfg.SourceBurst, log.Named("collector"))

	return forEachSeason(cfg, func(season int) error {
		rows, err := collector.Collect(ctx, season)
		if err != nil {
			return err
		}
		return files.WriteSeason(ctx, rows)
	})
}

func newService(cfg *config.Config, log logger.Logger, opts ...app.Option) (*app.Service, error) {
	policy, err := aggregate.ParseIdentityPolicy(cfg.IdentityPolicy)
	if err != nil {
		return nil, err
	}
	opts = append([]app.Option{
		app.WithLogger(log),
		app.WithIdentityPolicy(policy),
		app.WithRoleThresholds(cfg.MinStarts, cfg.MinReliefAppearances),
	}, opts...)
	return app.New(opts...), nil
}

// rankSeasons ranks every configured season from raw files, exports the
// results and publishes them to an in-memory store.
func rankSeasons(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, error) {
	files, err := newFileStore(cfg, log)
	if err != nil {
		return nil, err
	}
	svc, err := newService(cfg, log,
		app.WithStore(repository.NewMemoryStore()),
		app.WithSink(files),
	)
	if err != nil {
		return nil, err
	}
	if err := svc.Start(ctx); err != nil {
		return nil, err
	}

	err = forEachSeason(cfg, func(season int) error {
		rows, err := files.ReadSeason(ctx, season)
		if err != nil {
			return err
		}
		res, err := svc.ProcessSeason(ctx, rows)
		if err != nil {
			return err
		}
		log.Info(ctx, "season ranked", logger.String("run_id", res.RunID), logger.Int("season", season))
		return nil
	})

	if cfg.MetricsTextfile != "" {
		if mErr := metrics.WriteTextfile(cfg.MetricsTextfile); mErr != nil {
			log.Warn(ctx, "metrics textfile not written", logger.String("path", cfg.MetricsTextfile), logger.Error(mErr))
		}
	}
	return svc, err
}

func newHTTPServer(ctx context.Context, cfg *config.Config, svc *app.Service, counter api.TableCounter) *http.Server {
	mux := http.NewServeMux()
	api.NewServer(svc, cfg.MaxLeaderboardLimit, counter).Register(ctx, mux)
	swagger.Register(ctx, mux)
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

func serve(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	store := repository.NewMemoryStore()
	files, err := newFileStore(cfg, log)
	if err != nil {
		return err
	}
	svc, err := newService(cfg, log, app.WithStore(store), app.WithSink(files))
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}
	err = forEachSeason(cfg, func(season int) error {
		rows, err := files.ReadSeason(ctx, season)
		if err != nil {
			return err
		}
		_, err = svc.ProcessSeason(ctx, rows)
		return err
	})
	if err != nil {
		// Serve whatever ranked; failed domains are simply absent.
		log.Error(ctx, "some seasons failed to rank", logger.Error(err))
	}

	srv := newHTTPServer(ctx, cfg, svc, store)
	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.Int("tables", store.Count(ctx)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "http server")
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}
