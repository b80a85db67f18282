// Package dedupe is the idempotency boundary of the engine: a key is
// recorded at most once across poll cycles, and only the caller that
// recorded it may notify.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/okian/touchdown/internal/domain/model"
)

// Gate records dedup keys.
type Gate interface {
	// TryRecord atomically inserts key if absent. It returns true only for
	// the call that inserted it. A store failure returns an error marked
	// with ErrStoreUnavailable and must abort the caller's game.
	TryRecord(ctx context.Context, key model.DedupKey) (bool, error)
}

// Sizer is implemented by gates that can report how many keys they hold.
type Sizer interface {
	Size() int64
}

type node struct {
	key  string
	next *node
}

// MemoryGate keeps keys in a map plus an insertion-ordered list so the
// oldest key is evicted first once maxSize is reached. maxSize <= 0 means
// unbounded.
type MemoryGate struct {
	mu       sync.Mutex
	seen     map[string]*node
	head     *node // oldest
	tail     *node // newest
	maxSize  int
	size     atomic.Int64
	nodePool sync.Pool
}

// NewMemoryGate creates an in-process gate. It does not survive restarts.
func NewMemoryGate(opts ...Option) *MemoryGate {
	g := &MemoryGate{
		maxSize: 50000,
		seen:    make(map[string]*node),
		nodePool: sync.Pool{
			New: func() interface{} { return &node{} },
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *MemoryGate) TryRecord(ctx context.Context, key model.DedupKey) (bool, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return false, errors.Mark(errors.Wrap(err, "memory gate"), ErrStoreUnavailable)
		}
	}
	k := key.String()

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.seen[k]; exists {
		return false, nil
	}
	if g.maxSize > 0 && len(g.seen) >= g.maxSize {
		g.evictOldest()
	}

	n := g.nodePool.Get().(*node)
	n.key = k
	if g.tail == nil {
		g.head = n
	} else {
		g.tail.next = n
	}
	g.tail = n
	g.seen[k] = n
	g.size.Add(1)
	return true, nil
}

// evictOldest must be called with g.mu held.
func (g *MemoryGate) evictOldest() {
	n := g.head
	if n == nil {
		return
	}
	g.head = n.next
	if g.head == nil {
		g.tail = nil
	}
	delete(g.seen, n.key)
	n.key, n.next = "", nil
	g.nodePool.Put(n)
	g.size.Add(-1)
}

// Size returns the number of keys held.
func (g *MemoryGate) Size() int64 {
	return g.size.Load()
}

type boundedGate struct {
	next    Gate
	timeout time.Duration
}

// WithTimeout bounds every TryRecord on next by d. A timeout is reported as
// ErrStoreUnavailable like any other store failure.
func WithTimeout(next Gate, d time.Duration) Gate {
	if d <= 0 {
		return next
	}
	return &boundedGate{next: next, timeout: d}
}

func (b *boundedGate) TryRecord(ctx context.Context, key model.DedupKey) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	ok, err := b.next.TryRecord(ctx, key)
	if err != nil && !errors.Is(err, ErrStoreUnavailable) {
		err = errors.Mark(err, ErrStoreUnavailable)
	}
	return ok, err
}
