package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Signal is the verdict a strategy produces for one security.
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
	SignalHold Signal = "hold"
)

// Judgment is one (batch run, security, strategy) verdict. Rows are written
// exactly once per run and never updated; a new run produces new rows.
type Judgment struct {
	BatchRunID int64          `gorm:"primaryKey" json:"batch_run_id"`
	Code       string         `gorm:"primaryKey" json:"code"`
	Strategy   string         `gorm:"primaryKey" json:"strategy"`
	Signal     Signal         `gorm:"not null" json:"signal"`
	Score      float64        `gorm:"not null" json:"score"`
	Price      *float64       `json:"price"`
	AsOf       string         `gorm:"not null" json:"as_of"`
	TopReason  string         `json:"top_reason"`
	RulesJSON  datatypes.JSON `gorm:"type:jsonb;column:rules_json" json:"rules_json"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (Judgment) TableName() string {
	return "judgments"
}
