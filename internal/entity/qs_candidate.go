package entity

import "time"

// CandidateStatus is the survival state of a gap-up candidate. Transitions are
// one-directional: picked -> alive, picked/alive -> rejected. Rejected is
// terminal for the trade day.
type CandidateStatus string

const (
	CandidateStatusPicked   CandidateStatus = "picked"
	CandidateStatusAlive    CandidateStatus = "alive"
	CandidateStatusRejected CandidateStatus = "rejected"
)

// CanTransitionTo reports whether moving from s to next is a legal transition.
func (s CandidateStatus) CanTransitionTo(next CandidateStatus) bool {
	switch s {
	case CandidateStatusPicked:
		return next == CandidateStatusAlive || next == CandidateStatusRejected
	case CandidateStatusAlive:
		return next == CandidateStatusAlive || next == CandidateStatusRejected
	default:
		return false
	}
}

// Terminal reports whether no further transition is possible.
func (s CandidateStatus) Terminal() bool {
	return s == CandidateStatusRejected
}

// QsCandidate is one gap-up candidate for a trade day. Created once by the
// selector; only the survival monitor mutates it afterwards.
type QsCandidate struct {
	TradeDate    string          `gorm:"primaryKey" json:"trade_date"`
	Code         string          `gorm:"primaryKey" json:"code"`
	GapUpRate    float64         `gorm:"not null" json:"gap_up_rate"`
	PrevClose    float64         `gorm:"not null" json:"prev_close"`
	DayOpen      float64         `gorm:"not null" json:"day_open"`
	DayHigh      *float64        `json:"day_high"`
	LatestPrice  *float64        `json:"latest_price"`
	VolumeRatio  *float64        `json:"volume_ratio"`
	HighDistance *float64        `json:"high_distance"`
	Status       CandidateStatus `gorm:"not null" json:"status"`
	RejectReason *string         `json:"reject_reason"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (QsCandidate) TableName() string {
	return "qs_candidates"
}
