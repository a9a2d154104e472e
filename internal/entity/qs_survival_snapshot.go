package entity

// QsSurvivalSnapshot is one sample of a candidate during the survival window.
// Append-only: rows are never mutated or deleted after insert.
type QsSurvivalSnapshot struct {
	ID            int64    `gorm:"primaryKey" json:"id"`
	TradeDate     string   `gorm:"not null" json:"trade_date"`
	TsJST         string   `gorm:"not null;column:ts_jst" json:"ts_jst"`
	Code          string   `gorm:"not null" json:"code"`
	Price         float64  `gorm:"not null" json:"price"`
	CumVolume     *float64 `json:"cum_volume"`
	DeltaVolume   *float64 `json:"delta_volume"`
	BasePrice1500 *float64 `gorm:"column:base_price_1500" json:"base_price_1500"`
	DropFrom1500  *float64 `gorm:"column:drop_from_1500" json:"drop_from_1500"`
}

func (QsSurvivalSnapshot) TableName() string {
	return "qs_survival_snapshots"
}
