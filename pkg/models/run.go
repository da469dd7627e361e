package models

import "time"

type RunKind string

const (
	RunVerify      RunKind = "verify"
	RunInferSchema RunKind = "infer_schema"
	RunExtractRows RunKind = "extract_rows"
	RunSyncSchema  RunKind = "sync_schema"
	RunSyncData    RunKind = "sync_data"
)

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run records one pipeline invocation.
type Run struct {
	ID          string     `json:"id"`
	Kind        RunKind    `json:"kind"`
	SheetID     string     `json:"sheet_id,omitempty"`
	Status      RunStatus  `json:"status"`
	Columns     int        `json:"columns"`
	RowsWritten int        `json:"rows_written"`
	Error       string     `json:"error,omitempty"`
	ImageDigest string     `json:"image_digest,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}
