package location

import (
	"context"
	"strings"
	"sync"
)

// Picker tracks the marker of one form and reports every move as a location
// reference through onChange.
type Picker struct {
	provider MapProvider
	onChange func(ref string)
	start    Point

	initOnce sync.Once

	mu      sync.Mutex
	ready   bool
	current Point
}

// PickerOption customises a Picker.
type PickerOption func(*Picker)

// StartAt places the initial marker at ref when it parses, otherwise the
// fallback is kept.
func StartAt(ref string) PickerOption {
	return func(p *Picker) {
		if pt, err := ParseRef(ref); err == nil {
			p.start = pt
		}
	}
}

// NewPicker constructs a Picker for provider.
func NewPicker(provider MapProvider, onChange func(ref string), opts ...PickerOption) *Picker {
	if provider == nil {
		provider = StaticProvider{}
	}
	p := &Picker{provider: provider, onChange: onChange, start: Fallback}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Init waits for the provider and then, exactly once, places the marker at
// the start point and reports it.
func (p *Picker) Init(ctx context.Context) error {
	if err := p.provider.Ready(ctx); err != nil {
		return err
	}
	p.initOnce.Do(func() {
		p.mu.Lock()
		p.ready = true
		p.current = p.start
		p.mu.Unlock()
		p.report(p.start)
	})
	return nil
}

// Current returns the marker reference, if initialised.
func (p *Picker) Current() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready {
		return "", false
	}
	return p.current.Ref(), true
}

// Select moves the marker to the first place matching query.
func (p *Picker) Select(ctx context.Context, query string) (string, error) {
	searcher, ok := p.provider.(Searcher)
	if !ok {
		return "", ErrSearchUnsupported
	}
	if err := p.requireReady(); err != nil {
		return "", err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrNoPlace
	}
	pt, err := searcher.Search(ctx, query)
	if err != nil {
		return "", err
	}
	return p.move(pt)
}

// Click moves the marker to a clicked map position.
func (p *Picker) Click(lat, lng float64) (string, error) {
	return p.move(Point{Lat: lat, Lng: lng})
}

// Drag moves the marker to where it was dropped.
func (p *Picker) Drag(lat, lng float64) (string, error) {
	return p.move(Point{Lat: lat, Lng: lng})
}

func (p *Picker) move(pt Point) (string, error) {
	if err := p.requireReady(); err != nil {
		return "", err
	}
	if !pt.Valid() {
		return "", ErrInvalidPoint
	}
	p.mu.Lock()
	p.current = pt
	p.mu.Unlock()
	return p.report(pt), nil
}

func (p *Picker) requireReady() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready {
		return ErrNotReady
	}
	return nil
}

func (p *Picker) report(pt Point) string {
	ref := pt.Ref()
	if p.onChange != nil {
		p.onChange(ref)
	}
	return ref
}
