// Package config defines service configuration and its loading.
//
// Conventions:
//   - New returns a Config holding every default.
//   - Load layers a YAML file and TOUCHDOWN_* environment variables on top.
//   - Validation failures wrap ErrInvalidConfig with the failing field.
package config

import (
	"runtime"
	"time"
)

// Backend names shared by the dedup gate and the anomaly archive.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Publisher names.
const (
	PublisherLog   = "log"
	PublisherNATS  = "nats"
	PublisherRedis = "redis"
)

// Roster source names.
const (
	RosterFile     = "file"
	RosterPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`
	// CORSOrigins lists the origins allowed by the API.
	CORSOrigins []string `koanf:"cors_origins"`

	// QueueSize bounds the number of games waiting for a worker.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of concurrent game workers.
	WorkerCount int `koanf:"worker_count"`
	// JobTimeout bounds the work on one game in one cycle.
	JobTimeout time.Duration `koanf:"job_timeout"`

	// DedupeBackend is memory, redis or postgres.
	DedupeBackend string `koanf:"dedupe_backend"`
	// DedupeSize caps the in-memory gate.
	DedupeSize int `koanf:"dedupe_size"`
	// DedupeTTL is how long redis keeps a key.
	DedupeTTL time.Duration `koanf:"dedupe_ttl"`
	// DedupeTimeout bounds every dedup store call.
	DedupeTimeout time.Duration `koanf:"dedupe_timeout"`

	// ArchiveBackend is memory, redis or postgres.
	ArchiveBackend string `koanf:"archive_backend"`

	// Publishers lists where notifications go: log, nats, redis.
	Publishers []string `koanf:"publishers"`

	// RosterSource is file or postgres.
	RosterSource string `koanf:"roster_source"`
	// RosterFile is the YAML roster used by the file source.
	RosterFile string `koanf:"roster_file"`
	// GameWindow is how long after kickoff a game counts as in progress.
	GameWindow time.Duration `koanf:"game_window"`

	PostgresDSN string `koanf:"postgres_dsn"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	RedisStream   string `koanf:"redis_stream"`

	NATSURL     string `koanf:"nats_url"`
	NATSSubject string `koanf:"nats_subject"`
	NATSStream  string `koanf:"nats_stream"`

	// FeedBaseURL is the URL prefix the game id is appended to.
	FeedBaseURL string        `koanf:"feed_base_url"`
	FeedTimeout time.Duration `koanf:"feed_timeout"`
	// FeedRPS caps feed requests per second across all games.
	FeedRPS float64 `koanf:"feed_rps"`

	// Schedules are cron specs with a seconds field. Empty uses the defaults.
	Schedules []string `koanf:"schedules"`
	// Timezone the schedules are evaluated in.
	Timezone string `koanf:"timezone"`
	// RunOnStart triggers a cycle as soon as serve starts.
	RunOnStart bool `koanf:"run_on_start"`

	PickSixEnabled      bool `koanf:"pick_six_enabled"`
	RushReceiveMinYards int  `koanf:"rush_receive_min_yards"`
	PassMinYards        int  `koanf:"pass_min_yards"`
}

// New creates a Config holding every default.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		CORSOrigins:         []string{"*"},
		QueueSize:           256,
		WorkerCount:         runtime.NumCPU() * 2,
		JobTimeout:          30 * time.Second,
		DedupeBackend:       BackendMemory,
		DedupeSize:          50_000,
		DedupeTTL:           180 * 24 * time.Hour,
		DedupeTimeout:       2 * time.Second,
		ArchiveBackend:      BackendMemory,
		Publishers:          []string{PublisherLog},
		RosterSource:        RosterFile,
		RosterFile:          "roster.yaml",
		GameWindow:          4 * time.Hour,
		RedisAddr:           "localhost:6379",
		RedisStream:         "touchdown:notifications",
		NATSURL:             "nats://127.0.0.1:4222",
		NATSSubject:         "touchdown.notifications",
		NATSStream:          "TOUCHDOWN",
		FeedBaseURL:         "https://www.espn.com/nfl/playbyplay/_/gameId/",
		FeedTimeout:         10 * time.Second,
		FeedRPS:             2,
		Timezone:            "America/New_York",
		PickSixEnabled:      true,
		RushReceiveMinYards: 25,
		PassMinYards:        40,
	}
}

// Uses reports whether any configured component needs backend.
func (c *Config) Uses(backend string) bool {
	if c.DedupeBackend == backend || c.ArchiveBackend == backend {
		return true
	}
	if backend == BackendPostgres && c.RosterSource == RosterPostgres {
		return true
	}
	for _, p := range c.Publishers {
		if p == backend {
			return true
		}
	}
	return false
}
