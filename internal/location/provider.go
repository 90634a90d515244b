package location

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrNotReady is returned by picker interactions before Init completed.
	ErrNotReady = errors.New("location: map not ready")
	// ErrSearchUnsupported is returned when the provider cannot search places.
	ErrSearchUnsupported = errors.New("location: provider does not support search")
	// ErrNoPlace is returned when a search matched nothing.
	ErrNoPlace = errors.New("location: no place matched")
	// ErrInvalidPoint is returned for out-of-range coordinates.
	ErrInvalidPoint = errors.New("location: invalid coordinate")
)

// MapProvider is the map widget capability. Ready blocks until the widget can
// be used and returns the same result on every call.
type MapProvider interface {
	Ready(ctx context.Context) error
}

// Searcher resolves free text into a coordinate.
type Searcher interface {
	Search(ctx context.Context, query string) (Point, error)
}

// Readiness is a one-shot ready signal. The first Resolve wins.
type Readiness struct {
	once sync.Once
	done chan struct{}
	err  error
}

// NewReadiness returns an unresolved signal.
func NewReadiness() *Readiness {
	return &Readiness{done: make(chan struct{})}
}

// Resolve marks the signal as settled with err.
func (r *Readiness) Resolve(err error) {
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}

// Done is closed once resolved.
func (r *Readiness) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until resolved or ctx ends.
func (r *Readiness) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StaticProvider is always ready and cannot search; used when no map API key
// is configured.
type StaticProvider struct{}

// Ready implements MapProvider.
func (StaticProvider) Ready(context.Context) error { return nil }
