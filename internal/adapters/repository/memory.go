package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"

	"github.com/okian/touchdown/pkg/metrics"
)

type archiveKey struct {
	gameID string
	label  string
}

// MemoryArchive keeps archived documents in process memory.
type MemoryArchive struct {
	mu      sync.RWMutex
	entries map[archiveKey]ArchiveEntry
	clock   clockwork.Clock
}

// NewMemoryArchive creates an empty in-memory archive.
func NewMemoryArchive(opts ...Option) *MemoryArchive {
	a := &MemoryArchive{
		entries: make(map[archiveKey]ArchiveEntry),
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Archive upserts raw under (gameID, label).
func (a *MemoryArchive) Archive(ctx context.Context, gameID, label string, raw []byte) error {
	k, err := normalizeKey(gameID, label)
	if err != nil {
		return err
	}
	payload := make([]byte, len(raw))
	copy(payload, raw)

	a.mu.Lock()
	a.entries[k] = ArchiveEntry{GameID: k.gameID, Label: k.label, Payload: payload, ArchivedAt: a.clock.Now().UTC()}
	a.mu.Unlock()

	metrics.RecordArchiveWrite("memory")
	return nil
}

// Get returns the entry for (gameID, label).
func (a *MemoryArchive) Get(ctx context.Context, gameID, label string) (ArchiveEntry, error) {
	k, err := normalizeKey(gameID, label)
	if err != nil {
		return ArchiveEntry{}, err
	}
	a.mu.RLock()
	e, ok := a.entries[k]
	a.mu.RUnlock()
	if !ok {
		return ArchiveEntry{}, errors.Wrapf(ErrNotFound, "game %s label %q", gameID, label)
	}
	return e, nil
}

// List returns every entry ordered by game then label.
func (a *MemoryArchive) List(ctx context.Context) []ArchiveEntry {
	a.mu.RLock()
	out := make([]ArchiveEntry, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e)
	}
	a.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].GameID != out[j].GameID {
			return out[i].GameID < out[j].GameID
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// Count returns the number of archived entries.
func (a *MemoryArchive) Count(ctx context.Context) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.entries)
}

func normalizeKey(gameID, label string) (archiveKey, error) {
	k := archiveKey{gameID: strings.TrimSpace(gameID), label: NormalizeLabel(label)}
	if k.gameID == "" || k.label == "" {
		return archiveKey{}, ErrInvalidArgs
	}
	return k, nil
}

// NormalizeLabel returns the canonical archive label used by every backend.
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
