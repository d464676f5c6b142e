// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers a YAML file and environment variables on top of New().
// - External errors must be wrapped with this package's sentinel errors.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// DataDir holds raw row files and cleaned tables.
	DataDir string `koanf:"data_dir" validate:"required"`

	// RankingsDir receives ranking exports, one directory per season.
	RankingsDir string `koanf:"rankings_dir" validate:"required"`

	// Seasons lists the seasons a batch run processes.
	Seasons []int `koanf:"seasons" validate:"required,min=1,dive,gte=1876,lte=2100"`

	// Parallelism bounds how many seasons run concurrently.
	Parallelism int `koanf:"parallelism" validate:"gte=1"`

	// IdentityPolicy resolves identity drift between stints:
	// last_row_wins, first_row_wins or strict.
	IdentityPolicy string `koanf:"identity_policy" validate:"oneof=last_row_wins first_row_wins strict"`

	// MinStarts is the games-started threshold for the starter group.
	MinStarts int `koanf:"min_starts" validate:"gte=1"`

	// MinReliefAppearances is the threshold of non-start games for the reliever group.
	MinReliefAppearances int `koanf:"min_relief_appearances" validate:"gte=1"`

	// ExportFormats selects ranking outputs: csv, json, xlsx.
	ExportFormats []string `koanf:"export_formats" validate:"dive,oneof=csv json xlsx"`

	// MetricsTextfile, when set, receives a metrics dump after batch runs.
	MetricsTextfile string `koanf:"metrics_textfile"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit" validate:"gte=1"`

	// SourceBaseURL is the stats lookup service root.
	SourceBaseURL string `koanf:"source_base_url" validate:"required,url"`

	// SourceRPS and SourceBurst rate-limit calls to the stats source.
	SourceRPS   float64 `koanf:"source_rps" validate:"gt=0"`
	SourceBurst int     `koanf:"source_burst" validate:"gte=1"`

	// SourceTimeoutMS bounds a single source request.
	SourceTimeoutMS int `koanf:"source_timeout_ms" validate:"gte=1"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		DataDir:              "data",
		RankingsDir:          "rankings",
		Seasons:              []int{2019},
		Parallelism:          runtime.NumCPU(),
		IdentityPolicy:       "last_row_wins",
		MinStarts:            1,
		MinReliefAppearances: 1,
		ExportFormats:        []string{"csv", "json"},
		MaxLeaderboardLimit:  100,
		SourceBaseURL:        "https://lookup-service-prod.mlb.com/json",
		SourceRPS:            5,
		SourceBurst:          5,
		SourceTimeoutMS:      10_000,
	}
}
