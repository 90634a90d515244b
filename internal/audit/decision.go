// Package audit keeps the history of approve/reject decisions taken on the
// admin screen.
package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Action enumerates decision kinds.
type Action string

const (
	// ActionApprove marks an approval.
	ActionApprove Action = "APPROVE"
	// ActionReject marks a rejection.
	ActionReject Action = "REJECT"
)

// ActionFor maps the approve flag to an Action.
func ActionFor(approve bool) Action {
	if approve {
		return ActionApprove
	}
	return ActionReject
}

// Label is the human form shown in the history table.
func (a Action) Label() string {
	switch a {
	case ActionApprove:
		return "Approved"
	case ActionReject:
		return "Rejected"
	}
	return string(a)
}

// Decision is one stored approve/reject.
type Decision struct {
	ID           int64
	ListingID    string
	BusinessName string
	Action       Action
	RequestID    string
	At           time.Time
}

// Store persists decisions.
type Store interface {
	InsertDecision(ctx context.Context, d Decision) error
	RecentDecisions(ctx context.Context, limit int) ([]Decision, error)
}

// Recorder validates decisions before handing them to a Store. A Recorder
// without a store accepts everything and remembers nothing.
type Recorder struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewRecorder constructs a Recorder. store may be nil.
func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, logger: logger, now: time.Now}
}

// Enabled reports whether decisions are persisted.
func (r *Recorder) Enabled() bool {
	return r != nil && r.store != nil
}

// Record stores one decision.
func (r *Recorder) Record(ctx context.Context, d Decision) error {
	if !r.Enabled() {
		return nil
	}
	if d.ListingID == "" {
		return errors.New("decision listing id required")
	}
	if d.Action != ActionApprove && d.Action != ActionReject {
		return errors.New("decision action must be APPROVE or REJECT")
	}
	if d.At.IsZero() {
		d.At = r.now().UTC()
	}
	if err := r.store.InsertDecision(ctx, d); err != nil {
		r.logger.Error("record decision", slog.String("listing", d.ListingID), slog.Any("error", err))
		return err
	}
	return nil
}

// Recent returns the newest decisions first. limit is clamped to 1..50 and
// defaults to 20.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]Decision, error) {
	if !r.Enabled() {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}
	return r.store.RecentDecisions(ctx, limit)
}
