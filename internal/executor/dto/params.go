package dto

import "kabu-advisor/internal/entity"

// SnapshotParam selects the as-of data window the evaluator sees.
type SnapshotParam struct {
	Code      string
	DateFrom  string
	DateTo    string
	NewsLimit int
}

// GetCandidatesParam filters gap-up candidates.
type GetCandidatesParam struct {
	TradeDate string
	Statuses  []entity.CandidateStatus
}

// GetOrderSignalsParam filters order signals.
type GetOrderSignalsParam struct {
	TradeDate  string
	Code       string
	SignalType entity.SignalType
	Status     entity.SignalStatus
}

// GetPositionsParam filters positions.
type GetPositionsParam struct {
	Code      string
	State     entity.PositionState
	EntryDate string
}
