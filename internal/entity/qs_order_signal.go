package entity

// OrderSide is the direction of a proposed order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// SignalType distinguishes entry proposals from exit proposals.
type SignalType string

const (
	SignalTypeEntry SignalType = "entry"
	SignalTypeExit  SignalType = "exit"
)

// SignalStatus is the resolution state of an order signal. A signal is a
// proposal: the position manager resolves it to confirmed or skipped.
type SignalStatus string

const (
	SignalStatusNew       SignalStatus = "new"
	SignalStatusConfirmed SignalStatus = "confirmed"
	SignalStatusSkipped   SignalStatus = "skipped"
)

// QsOrderSignal is an advisory order proposal, never a live order.
type QsOrderSignal struct {
	ID         int64        `gorm:"primaryKey" json:"id"`
	TradeDate  string       `gorm:"not null" json:"trade_date"`
	TsJST      string       `gorm:"not null;column:ts_jst" json:"ts_jst"`
	Code       string       `gorm:"not null" json:"code"`
	Side       OrderSide    `gorm:"not null" json:"side"`
	SignalType SignalType   `gorm:"not null" json:"signal_type"`
	Price      float64      `gorm:"not null" json:"price"`
	Reason     string       `json:"reason"`
	Status     SignalStatus `gorm:"not null" json:"status"`
}

func (QsOrderSignal) TableName() string {
	return "qs_order_signals"
}
