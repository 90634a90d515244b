package directory

import (
	"context"
	"sync"
)

// Submitter sends drafts to the directory API.
type Submitter interface {
	Create(ctx context.Context, draft Draft) error
	Update(ctx context.Context, draft Draft) error
}

// FormController owns the draft of one create or edit form.
type FormController struct {
	submitter Submitter
	guard     Guard
	guardKey  string
	onSuccess func(ctx context.Context, submitted Draft)

	mu       sync.Mutex
	draft    Draft
	location string
}

// FormOption customises a FormController.
type FormOption func(*FormController)

// WithSubmitGuard shares the in-flight flag through g under key, so that
// submissions coming from different requests are also serialised.
func WithSubmitGuard(g Guard, key string) FormOption {
	return func(f *FormController) {
		if g != nil {
			f.guard = g
		}
		if key != "" {
			f.guardKey = key
		}
	}
}

// OnSubmitted registers the completion callback run after a successful submit.
func OnSubmitted(fn func(ctx context.Context, submitted Draft)) FormOption {
	return func(f *FormController) { f.onSuccess = fn }
}

// NewFormController constructs a controller editing draft.
func NewFormController(submitter Submitter, draft Draft, opts ...FormOption) *FormController {
	f := &FormController{
		submitter: submitter,
		guard:     NewMemoryGuard(),
		guardKey:  "form",
		draft:     draft.Clone(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SetField replaces one field of the draft.
func (f *FormController) SetField(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft.Set(name, value)
}

// SetLocation is the location picker callback.
func (f *FormController) SetLocation(ref string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.location = ref
}

// Draft returns the draft merged with the current location reference.
func (f *FormController) Draft() Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.merged()
}

// Reset restores an empty draft, keeping the identifier of an edit form.
func (f *FormController) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.draft.ID
	f.draft = NewDraft()
	f.draft.ID = id
	f.location = ""
}

// InFlight reports whether a submission is outstanding.
func (f *FormController) InFlight(ctx context.Context) bool {
	held, err := f.guard.Held(ctx, f.guardKey)
	return err == nil && held
}

// Submit sends the draft to the update endpoint when it carries an
// identifier, otherwise to the create endpoint. A concurrent Submit fails
// with ErrSubmitInFlight. The draft is left untouched on failure.
func (f *FormController) Submit(ctx context.Context) error {
	token, ok, err := f.guard.Acquire(ctx, f.guardKey)
	if err != nil {
		return &SubmitError{Op: "submit", Err: err}
	}
	if !ok {
		return ErrSubmitInFlight
	}
	defer func() {
		_ = f.guard.Release(context.WithoutCancel(ctx), f.guardKey, token)
	}()

	draft := f.Draft()
	op := "create"
	if draft.IsUpdate() {
		op = "update"
		err = f.submitter.Update(ctx, draft)
	} else {
		err = f.submitter.Create(ctx, draft)
	}
	if err != nil {
		return &SubmitError{Op: op, Err: err}
	}
	if f.onSuccess != nil {
		f.onSuccess(ctx, draft)
	}
	return nil
}

func (f *FormController) merged() Draft {
	d := f.draft.Clone()
	if f.location != "" {
		_ = d.Set(FieldLocationLink, f.location)
	}
	return d
}
