package entity

// PositionState is the lifecycle state of a position: open -> closed, terminal.
type PositionState string

const (
	PositionStateOpen   PositionState = "open"
	PositionStateClosed PositionState = "closed"
)

// CanTransitionTo reports whether moving from s to next is a legal transition.
func (s PositionState) CanTransitionTo(next PositionState) bool {
	return s == PositionStateOpen && next == PositionStateClosed
}

// QsPosition is the record of capital committed to a security. Created on a
// confirmed entry signal, mutated exactly once at close.
// Invariant: at most one open position per code at any time.
type QsPosition struct {
	ID            int64         `gorm:"primaryKey" json:"id"`
	Code          string        `gorm:"not null" json:"code"`
	EntryDate     string        `gorm:"not null" json:"entry_date"`
	EntryTsJST    string        `gorm:"not null;column:entry_ts_jst" json:"entry_ts_jst"`
	EntryPrice    float64       `gorm:"not null" json:"entry_price"`
	AllocationPct float64       `gorm:"not null" json:"allocation_pct"`
	State         PositionState `gorm:"not null" json:"state"`
	ExitDate      *string       `json:"exit_date"`
	ExitTsJST     *string       `gorm:"column:exit_ts_jst" json:"exit_ts_jst"`
	ExitPrice     *float64      `json:"exit_price"`
	ExitReason    *string       `json:"exit_reason"`
}

func (QsPosition) TableName() string {
	return "qs_positions"
}
