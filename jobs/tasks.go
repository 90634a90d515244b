package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDirectoryRefresh reloads the listing after an approval decision.
	TaskDirectoryRefresh = "directory:refresh"
	// TaskDirectoryCensus reloads the listing on a schedule to keep gauges fresh.
	TaskDirectoryCensus = "directory:census"
)

// RefreshPayload describes why a refresh was requested.
type RefreshPayload struct {
	ListingID   string    `json:"listing_id,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewRefreshTask constructs a directory refresh task.
func NewRefreshTask(payload RefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDirectoryRefresh, data), nil
}

// NewCensusTask constructs the periodic census task.
func NewCensusTask() *asynq.Task {
	return asynq.NewTask(TaskDirectoryCensus, nil)
}
