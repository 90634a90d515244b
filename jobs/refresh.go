package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/synapse-directory/synapse/internal/directory"
	jobmetrics "github.com/synapse-directory/synapse/internal/jobs"
)

// ListingLoader reloads the business listing.
type ListingLoader interface {
	Load(ctx context.Context) ([]directory.Record, error)
}

// CountPublisher receives listing counts keyed by approval label.
type CountPublisher interface {
	SetRecordCounts(counts map[string]int)
}

// RefreshJob reloads the listing and publishes per-state counts.
type RefreshJob struct {
	Loader    ListingLoader
	Publisher CountPublisher
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewRefreshJob wires the refresh handler.
func NewRefreshJob(loader ListingLoader, publisher CountPublisher, logger *slog.Logger, metrics *jobmetrics.Metrics) *RefreshJob {
	return &RefreshJob{Loader: loader, Publisher: publisher, Logger: logger, Metrics: metrics}
}

// Handle processes TaskDirectoryRefresh and TaskDirectoryCensus tasks.
func (j *RefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Loader == nil {
		return errors.New("directory refresh: handler not configured")
	}
	var payload RefreshPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := j.Metrics.Track(t.Type())
	logger := j.logger().With(slog.String("task", t.Type()))
	if payload.ListingID != "" {
		logger = logger.With(slog.String("listing", payload.ListingID))
	}

	records, err := j.Loader.Load(ctx)
	if err != nil {
		logger.Error("refresh listing", slog.Any("error", err))
		return tracker.End(err)
	}
	counts := CountByState(records)
	if j.Publisher != nil {
		j.Publisher.SetRecordCounts(counts)
	}
	logger.Info("refreshed listing", slog.Int("records", len(records)))
	return tracker.End(nil)
}

// CountByState tallies records by approval label. Every label is present so
// gauges drop to zero when a state empties.
func CountByState(records []directory.Record) map[string]int {
	counts := map[string]int{
		directory.ApprovalApproved.Label(): 0,
		directory.ApprovalRejected.Label(): 0,
		directory.ApprovalUnset.Label():    0,
	}
	for _, r := range records {
		counts[r.Approved.Label()]++
	}
	return counts
}

func (j *RefreshJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
