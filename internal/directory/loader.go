package directory

import (
	"context"
	"slices"
	"sync"
)

// Lister fetches the full listing collection.
type Lister interface {
	List(ctx context.Context) ([]Record, error)
}

// Status is the load lifecycle of a screen.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "error"
	default:
		return "idle"
	}
}

// State is a snapshot of what a screen shows.
type State struct {
	Status  Status
	Records []Record
	Err     error
}

// Empty reports a successful load that returned nothing.
func (s State) Empty() bool {
	return s.Status == StatusLoaded && len(s.Records) == 0
}

// Loader holds the listing collection of one screen. It never caches: every
// Load goes back to the directory API.
type Loader struct {
	lister Lister

	mu    sync.RWMutex
	state State
}

// NewLoader constructs a Loader.
func NewLoader(lister Lister) *Loader {
	return &Loader{lister: lister}
}

// Load fetches the collection. On success it replaces the held records and
// clears the previous error; on failure the previous records are kept.
func (l *Loader) Load(ctx context.Context) ([]Record, error) {
	l.mu.Lock()
	l.state.Status = StatusLoading
	l.mu.Unlock()

	records, err := l.lister.List(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		fetchErr := &FetchError{Err: err}
		l.state.Status = StatusFailed
		l.state.Err = fetchErr
		return nil, fetchErr
	}
	if records == nil {
		records = []Record{}
	}
	l.state = State{Status: StatusLoaded, Records: records}
	return slices.Clone(records), nil
}

// Refresh reloads and discards the records; used after mutations.
func (l *Loader) Refresh(ctx context.Context) error {
	_, err := l.Load(ctx)
	return err
}

// State returns a copy of the current state.
func (l *Loader) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s := l.state
	s.Records = slices.Clone(s.Records)
	return s
}
