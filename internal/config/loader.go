package config

import (
	"context"
	"io/fs"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "TOUCHDOWN_"

// listKeys are split on listSeparator when they come from the environment.
// Cron specs may contain commas, so the separator is a semicolon.
var listKeys = map[string]bool{"cors_origins": true, "publishers": true, "schedules": true}

const listSeparator = ";"

// LoadDotEnv loads KEY=VALUE files into the process environment without
// overriding variables already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return errors.Mark(errors.Wrapf(err, "load %s", p), ErrLoadConfig)
		}
	}
	return nil
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if TOUCHDOWN_CONFIG is set
//  3. env (prefix TOUCHDOWN_)
func Load(_ context.Context) (*Config, error) {
	base := New()
	k := koanf.New(".")

	if path := os.Getenv(envPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "read %s", path), ErrLoadConfig)
		}
	}

	// TOUCHDOWN_QUEUE_SIZE -> queue_size; underscores are kept to match the
	// flat koanf tags.
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
		if key == "config" {
			return "", nil
		}
		if listKeys[key] {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "read environment"), ErrLoadConfig)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decode config"), ErrLoadConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, listSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func invalid(field, format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidConfig, field+": "+format, args...)
}

// Validate checks field ranges and cross-field requirements.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return invalid("addr", "must not be empty")
	case c.QueueSize < 1:
		return invalid("queue_size", "must be positive, got %d", c.QueueSize)
	case c.WorkerCount < 1:
		return invalid("worker_count", "must be positive, got %d", c.WorkerCount)
	case c.RushReceiveMinYards < 1:
		return invalid("rush_receive_min_yards", "must be positive, got %d", c.RushReceiveMinYards)
	case c.PassMinYards < 1:
		return invalid("pass_min_yards", "must be positive, got %d", c.PassMinYards)
	case c.FeedRPS <= 0:
		return invalid("feed_rps", "must be positive, got %v", c.FeedRPS)
	case c.GameWindow <= 0:
		return invalid("game_window", "must be positive, got %s", c.GameWindow)
	}

	format := strings.ToLower(c.LogFormat)
	if format != "text" && format != "json" {
		return invalid("log_format", "unknown format %q", c.LogFormat)
	}
	for field, v := range map[string]string{"dedupe_backend": c.DedupeBackend, "archive_backend": c.ArchiveBackend} {
		if v != BackendMemory && v != BackendRedis && v != BackendPostgres {
			return invalid(field, "unknown backend %q", v)
		}
	}
	if len(c.Publishers) == 0 {
		return invalid("publishers", "at least one publisher is required")
	}
	for _, p := range c.Publishers {
		if p != PublisherLog && p != PublisherNATS && p != PublisherRedis {
			return invalid("publishers", "unknown publisher %q", p)
		}
	}
	switch c.RosterSource {
	case RosterFile:
		if c.RosterFile == "" {
			return invalid("roster_file", "required for the file roster source")
		}
	case RosterPostgres:
	default:
		return invalid("roster_source", "unknown source %q", c.RosterSource)
	}
	if c.Uses(BackendPostgres) && c.PostgresDSN == "" {
		return invalid("postgres_dsn", "required when a postgres backend is configured")
	}
	if c.Uses(BackendRedis) && c.RedisAddr == "" {
		return invalid("redis_addr", "required when a redis backend is configured")
	}
	if c.Uses(PublisherNATS) && c.NATSURL == "" {
		return invalid("nats_url", "required for the nats publisher")
	}
	return nil
}
