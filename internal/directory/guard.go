package directory

import (
	"context"
	"strconv"
	"sync"
)

// Guard tracks keys that have an operation outstanding. Acquire must be
// atomic: of two concurrent callers for the same key only one wins. The
// winner gets a token; Release only frees the key while that token still
// holds it.
type Guard interface {
	Acquire(ctx context.Context, key string) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
	Held(ctx context.Context, key string) (bool, error)
}

// MemoryGuard is a process-local Guard.
type MemoryGuard struct {
	mu   sync.Mutex
	seq  uint64
	held map[string]string
}

// NewMemoryGuard constructs an empty MemoryGuard.
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{held: make(map[string]string)}
}

// Acquire marks key as held.
func (g *MemoryGuard) Acquire(_ context.Context, key string) (string, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.held[key]; ok {
		return "", false, nil
	}
	g.seq++
	token := strconv.FormatUint(g.seq, 10)
	g.held[key] = token
	return token, true, nil
}

// Release frees key when token matches the current hold.
func (g *MemoryGuard) Release(_ context.Context, key, token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held[key] == token {
		delete(g.held, key)
	}
	return nil
}

// Held reports whether key is currently held.
func (g *MemoryGuard) Held(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.held[key]
	return ok, nil
}
