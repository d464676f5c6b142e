// Package statsapi fetches season rosters and per-stint player statistics
// from the MLB lookup service.
package statsapi

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"

	"github.com/okian/seasonrank/internal/domain/model"
	"github.com/okian/seasonrank/pkg/logger"
	"github.com/okian/seasonrank/pkg/metrics"
)

// Endpoint names of the lookup service.
const (
	EndpointTeams    = "team_all_season"
	EndpointRoster   = "roster_40"
	EndpointHitting  = "sport_hitting_tm"
	EndpointPitching = "sport_pitching_tm"
)

const (
	defaultBaseURL = "https://lookup-service-prod.mlb.com/json"
	maxBodyBytes   = 8 << 20
	retryBackoff   = 250 * time.Millisecond
)

// Column selections per endpoint.
var (
	rosterColumns   = []string{"name_full", "team_name", "team_id", "primary_position", "player_id"}
	hittingColumns  = []string{"r", "hr", "rbi", "h", "ab", "sb", "team_full"}
	pitchingColumns = []string{"w", "sv", "hld", "so", "er", "bb", "h", "ip", "g", "gs", "team_full"}
)

// Record is one flat row of the lookup service.
type Record = map[string]model.Value

// Client talks to the lookup service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	logger     logger.Logger
}

// New creates a Client with configuration options.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(5), 5),
		maxRetries: 2,
		logger:     logger.Get(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Teams lists the MLB teams of a season.
func (c *Client) Teams(ctx context.Context, season int) ([]Record, error) {
	q := url.Values{}
	q.Set("sport_code", "'mlb'")
	q.Set("all_star_sw", "'N'")
	q.Set("season", strconv.Itoa(season))
	return c.fetch(ctx, EndpointTeams, q)
}

// Roster returns the 40-man roster of a team.
func (c *Client) Roster(ctx context.Context, teamID string) ([]Record, error) {
	q := url.Values{}
	q.Set("team_id", teamID)
	addColumns(q, EndpointRoster, rosterColumns)
	return c.fetch(ctx, EndpointRoster, q)
}

// HittingStats returns one row per team-stint of a hitter's regular season.
func (c *Client) HittingStats(ctx context.Context, playerID string, season int) ([]Record, error) {
	return c.fetch(ctx, EndpointHitting, statsQuery(EndpointHitting, playerID, season, hittingColumns))
}

// PitchingStats returns one row per team-stint of a pitcher's regular season.
func (c *Client) PitchingStats(ctx context.Context, playerID string, season int) ([]Record, error) {
	return c.fetch(ctx, EndpointPitching, statsQuery(EndpointPitching, playerID, season, pitchingColumns))
}

func statsQuery(endpoint, playerID string, season int, columns []string) url.Values {
	q := url.Values{}
	q.Set("player_id", playerID)
	q.Set("season", strconv.Itoa(season))
	q.Set("game_type", "'R'")
	q.Set("league_list_id", "'mlb'")
	addColumns(q, endpoint, columns)
	return q
}

func addColumns(q url.Values, endpoint string, columns []string) {
	for _, col := range columns {
		q.Add(endpoint+".col_in", col)
	}
}

func (c *Client) fetch(ctx context.Context, endpoint string, q url.Values) ([]Record, error) {
	start := time.Now()
	raw, err := c.get(ctx, endpoint, q)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordSourceRequest(endpoint, "error", latency)
		return nil, err
	}
	rows, err := decodeRows(endpoint, raw)
	if err != nil {
		metrics.RecordSourceRequest(endpoint, "decode_error", latency)
		return nil, err
	}
	metrics.RecordSourceRequest(endpoint, "ok", latency)
	return rows, nil
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values) ([]byte, error) {
	fullURL := c.baseURL + "/named." + endpoint + ".bam?" + q.Encode()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * retryBackoff):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		raw, err := c.do(ctx, fullURL)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !errors.Is(err, ErrTransient) {
			return nil, errors.Wrapf(err, "%s", endpoint)
		}
		c.logger.Warn(ctx, "stats source request failed, retrying",
			logger.String("endpoint", endpoint),
			logger.Int("attempt", attempt+1),
			logger.Error(err),
		)
	}
	return nil, errors.Wrapf(lastErr, "%s after %d attempts", endpoint, c.maxRetries+1)
}

func (c *Client) do(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Mark(errors.Wrap(err, "send request"), ErrTransient)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "read response body"), ErrTransient)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := errors.Wrapf(ErrStatus, "status=%d", resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			err = errors.Mark(err, ErrTransient)
		}
		return nil, err
	}
	return raw, nil
}

// envelope is {"<endpoint>": {"queryResults": {"row": ...}}}.
type envelope map[string]struct {
	QueryResults struct {
		TotalSize model.Value `json:"totalSize"`
		Row       rows        `json:"row"`
	} `json:"queryResults"`
}

// rows accepts the service's three shapes: a list, a single object, or an
// empty object when nothing matched.
type rows []Record

func (r *rows) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*r = nil
		return nil
	}
	if b[0] == '[' {
		var list []Record
		if err := sonic.Unmarshal(b, &list); err != nil {
			return err
		}
		*r = list
		return nil
	}
	var one Record
	if err := sonic.Unmarshal(b, &one); err != nil {
		return err
	}
	if len(one) == 0 {
		*r = nil
		return nil
	}
	*r = rows{one}
	return nil
}

func decodeRows(endpoint string, raw []byte) ([]Record, error) {
	var env envelope
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "%s", endpoint), ErrDecode)
	}
	body, ok := env[endpoint]
	if !ok {
		return nil, errors.Mark(errors.Newf("%s: missing %q envelope", endpoint, endpoint), ErrDecode)
	}
	return body.QueryResults.Row, nil
}
