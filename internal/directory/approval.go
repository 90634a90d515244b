package directory

import (
	"context"
	"time"
)

// DefaultRefreshDelay is how long to wait after a decision before reloading
// the listing, giving the directory store time to make the write visible.
const DefaultRefreshDelay = time.Second

// Decider sends approval decisions to the directory API.
type Decider interface {
	SetApproval(ctx context.Context, id string, approve bool) error
}

// Refresher reloads a screen's listing.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler runs a listing refresh once delay has elapsed.
type Scheduler interface {
	ScheduleRefresh(ctx context.Context, delay time.Duration, id string) error
}

// TimerScheduler refreshes in-process using a timer.
type TimerScheduler struct {
	Refresher Refresher
	// OnError receives refresh failures; nil drops them.
	OnError func(error)
}

// ScheduleRefresh implements Scheduler.
func (s TimerScheduler) ScheduleRefresh(ctx context.Context, delay time.Duration, _ string) error {
	if s.Refresher == nil {
		return nil
	}
	refreshCtx := context.WithoutCancel(ctx)
	time.AfterFunc(delay, func() {
		if err := s.Refresher.Refresh(refreshCtx); err != nil && s.OnError != nil {
			s.OnError(err)
		}
	})
	return nil
}

// ApprovalController sends approve/reject decisions and refreshes the listing.
type ApprovalController struct {
	decider   Decider
	scheduler Scheduler
	guard     Guard
	delay     time.Duration
	onDecided func(ctx context.Context, id string, approve bool)
}

// ApprovalOption customises an ApprovalController.
type ApprovalOption func(*ApprovalController)

// WithRefreshDelay overrides DefaultRefreshDelay.
func WithRefreshDelay(d time.Duration) ApprovalOption {
	return func(a *ApprovalController) {
		if d >= 0 {
			a.delay = d
		}
	}
}

// WithProcessingGuard shares the per-listing processing flag through g.
func WithProcessingGuard(g Guard) ApprovalOption {
	return func(a *ApprovalController) {
		if g != nil {
			a.guard = g
		}
	}
}

// OnDecided registers a callback run after each successful decision.
func OnDecided(fn func(ctx context.Context, id string, approve bool)) ApprovalOption {
	return func(a *ApprovalController) { a.onDecided = fn }
}

// NewApprovalController constructs an ApprovalController.
func NewApprovalController(decider Decider, scheduler Scheduler, opts ...ApprovalOption) *ApprovalController {
	a := &ApprovalController{
		decider:   decider,
		scheduler: scheduler,
		guard:     NewMemoryGuard(),
		delay:     DefaultRefreshDelay,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RefreshDelay returns the configured post-decision delay.
func (a *ApprovalController) RefreshDelay() time.Duration {
	return a.delay
}

// Processing reports whether a decision for id is outstanding.
func (a *ApprovalController) Processing(ctx context.Context, id string) bool {
	held, err := a.guard.Held(ctx, processingKey(id))
	return err == nil && held
}

// Decide approves or rejects the listing id. Decisions for the same id are
// exclusive; different ids proceed independently. On success exactly one
// refresh is scheduled after the refresh delay.
func (a *ApprovalController) Decide(ctx context.Context, id string, approve bool) error {
	if id == "" {
		return &DecisionError{ID: id, Approve: approve, Err: ErrMissingID}
	}
	key := processingKey(id)
	token, ok, err := a.guard.Acquire(ctx, key)
	if err != nil {
		return &DecisionError{ID: id, Approve: approve, Err: err}
	}
	if !ok {
		return ErrDecisionInProgress
	}
	err = a.decider.SetApproval(ctx, id, approve)
	_ = a.guard.Release(context.WithoutCancel(ctx), key, token)
	if err != nil {
		return &DecisionError{ID: id, Approve: approve, Err: err}
	}

	if a.onDecided != nil {
		a.onDecided(ctx, id, approve)
	}
	if a.scheduler != nil {
		// The decision is already stored; schedulers log their own failures.
		_ = a.scheduler.ScheduleRefresh(ctx, a.delay, id)
	}
	return nil
}

func processingKey(id string) string {
	return "approval:" + id
}
