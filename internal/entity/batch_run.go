package entity

// RunStatus is the lifecycle state of one batch run.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusError   RunStatus = "error"
)

// BatchRun is the ledger row for one end-to-end judgment pass. It is created
// with status=running and mutated exactly once at run end.
// Invariant: SuccessCount + ErrorCount <= TargetCount.
type BatchRun struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	StartedAt    string    `gorm:"not null" json:"started_at"`
	FinishedAt   *string   `json:"finished_at"`
	Status       RunStatus `gorm:"not null" json:"status"`
	TargetCount  int       `gorm:"not null" json:"target_count"`
	SuccessCount int       `gorm:"not null" json:"success_count"`
	ErrorCount   int       `gorm:"not null" json:"error_count"`
	Message      string    `json:"message"`
}

func (BatchRun) TableName() string {
	return "batch_runs"
}

// Finished reports whether the run has reached a terminal status.
func (b *BatchRun) Finished() bool {
	return b.Status == RunStatusSuccess || b.Status == RunStatusError
}

// Degraded reports whether the run completed but with per-security errors.
func (b *BatchRun) Degraded() bool {
	return b.Status == RunStatusSuccess && b.ErrorCount > 0
}
