// Package redis implements the dedup gate and the anomaly archive on Redis.
package redis

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	goredis "github.com/redis/go-redis/v9"

	"github.com/okian/touchdown/internal/adapters/repository"
	"github.com/okian/touchdown/internal/domain/dedupe"
	"github.com/okian/touchdown/internal/domain/model"
	"github.com/okian/touchdown/pkg/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	backend = "redis"

	defaultKeyPrefix = "touchdown"
	defaultTTL       = 180 * 24 * time.Hour
)

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix sets the key namespace.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		if p := strings.Trim(prefix, ": "); p != "" {
			s.prefix = p
		}
	}
}

// WithTTL sets how long dedup keys live. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

// Store is a Redis-backed dedupe.Gate and repository.Archive.
type Store struct {
	client goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

// New wraps an existing client.
func New(client goredis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, prefix: defaultKeyPrefix, ttl: defaultTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr, password string, db int, opts ...Option) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "ping redis %s", addr)
	}
	return New(client, opts...), nil
}

// Client exposes the underlying client for components sharing the connection.
func (s *Store) Client() goredis.UniversalClient { return s.client }

// Close closes the client.
func (s *Store) Close() error { return s.client.Close() }

// DedupKey returns the Redis key holding key.
func (s *Store) DedupKey(key model.DedupKey) string {
	return s.prefix + ":dedup:" + key.String()
}

// ArchiveKey returns the Redis key for (gameID, label).
func (s *Store) ArchiveKey(gameID, label string) string {
	return s.prefix + ":archive:" + strings.TrimSpace(gameID) + ":" + repository.NormalizeLabel(label)
}

// TryRecord sets the key only if absent.
func (s *Store) TryRecord(ctx context.Context, key model.DedupKey) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.DedupKey(key), "1", s.ttl).Result()
	if err != nil {
		metrics.RecordDedupStoreError(backend)
		return false, errors.Mark(errors.Wrap(err, "redis setnx"), dedupe.ErrStoreUnavailable)
	}
	return ok, nil
}

// Archive upserts raw under (gameID, label).
func (s *Store) Archive(ctx context.Context, gameID, label string, raw []byte) error {
	if strings.TrimSpace(gameID) == "" || repository.NormalizeLabel(label) == "" {
		return repository.ErrInvalidArgs
	}
	entry := repository.ArchiveEntry{
		GameID:     strings.TrimSpace(gameID),
		Label:      repository.NormalizeLabel(label),
		Payload:    raw,
		ArchivedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "encode archive entry")
	}
	if err := s.client.Set(ctx, s.ArchiveKey(gameID, label), data, 0).Err(); err != nil {
		metrics.RecordArchiveError(backend)
		return errors.Wrap(err, "redis set archive")
	}
	metrics.RecordArchiveWrite(backend)
	return nil
}

// Get returns the entry for (gameID, label).
func (s *Store) Get(ctx context.Context, gameID, label string) (repository.ArchiveEntry, error) {
	data, err := s.client.Get(ctx, s.ArchiveKey(gameID, label)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return repository.ArchiveEntry{}, errors.Wrapf(repository.ErrNotFound, "game %s label %q", gameID, label)
	}
	if err != nil {
		return repository.ArchiveEntry{}, errors.Wrap(err, "redis get archive")
	}
	var entry repository.ArchiveEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return repository.ArchiveEntry{}, errors.Wrap(err, "decode archive entry")
	}
	return entry, nil
}

var (
	_ dedupe.Gate        = (*Store)(nil)
	_ repository.Archive = (*Store)(nil)
)
