package entity

// TickType names the discrete scheduler ticks the executor dispatches on.
type TickType string

const (
	TickTypeJudgmentBatch TickType = "judgment_batch"
	TickTypeCandidateScan TickType = "candidate_scan"
	TickTypeSurvivalTest  TickType = "survival_test"
	TickTypeEntrySignal   TickType = "entry_signal"
	TickTypeExitSignal    TickType = "exit_signal"
)

// Tick is the payload the scheduler publishes for one discrete tick.
type Tick struct {
	Type        TickType `json:"type"`
	TradeDate   string   `json:"trade_date"`
	PublishedAt string   `json:"published_at"`
}
