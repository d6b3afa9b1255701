package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSourceRefresh re-reads the remote sources and re-warms the cache.
	TaskSourceRefresh = "source:refresh"
)

// SourceRefreshPayload narrows a refresh run. Empty Targets means all.
type SourceRefreshPayload struct {
	Targets  []string `json:"targets,omitempty"`
	Snapshot bool     `json:"snapshot"`
}

// NewSourceRefreshTask constructs an Asynq task.
func NewSourceRefreshTask(payload SourceRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSourceRefresh, data), nil
}
