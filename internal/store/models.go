package store

import "time"

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

type Run struct {
	RunID       string
	Experiment  string
	TaskName    string
	ModelType   string
	ModelName   string
	Phase       string
	Status      string
	ConfigRef   string
	ConfigSHA   string
	ExitCode    *int
	StartedAt   time.Time
	FinishedAt  *time.Time
	ArgsJSON    []byte
	MetricsJSON []byte
}

type CheckpointRecord struct {
	RunID       string
	Step        int
	Path        string
	MetricsJSON []byte
	CreatedAt   time.Time
}
