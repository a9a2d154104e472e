package rules

import (
	"kabu-advisor/internal/entity"
)

// RuleOutcome is one rule's audited result. The ordered outcome list is
// serialized as the judgment's rules_json audit trail.
type RuleOutcome struct {
	Name         string   `json:"name"`
	Contribution float64  `json:"contribution"`
	Value        *float64 `json:"value"`
	Threshold    string   `json:"threshold"`
	Passed       bool     `json:"passed"`
	Reason       string   `json:"reason"`
}

// StockJudgment is the final verdict of one strategy for one security.
type StockJudgment struct {
	Code     string
	Name     string
	Strategy string
	Signal   entity.Signal
	Score    float64
	Price    *float64
	AsOf     string
	Outcomes []RuleOutcome
}

// TopReason returns the explanation of the highest-magnitude contribution.
func (j *StockJudgment) TopReason() string {
	return topReason(j.Outcomes)
}

// Snapshot is the as-of view of ingested data a strategy evaluates. The
// evaluator reads nothing else: identical snapshots always yield identical
// judgments.
type Snapshot struct {
	Quotes        []entity.DailyQuote
	Statements    []entity.Statement
	Dividends     []entity.Dividend
	Announcements []entity.Announcement
	News          []entity.News

	// AcquisitionPrice enables the holding-exit rules when the caller
	// evaluates a held position; nil during screening.
	AcquisitionPrice *float64
}

// Thresholds maps a summed score to a signal for one strategy.
type Thresholds struct {
	Buy  float64 `mapstructure:"buy"`
	Sell float64 `mapstructure:"sell"`
}

// mapSignal applies the threshold mapping: score >= Buy -> buy,
// score <= Sell -> sell, else hold.
func mapSignal(score float64, th Thresholds) entity.Signal {
	switch {
	case score >= th.Buy:
		return entity.SignalBuy
	case score <= th.Sell:
		return entity.SignalSell
	default:
		return entity.SignalHold
	}
}

// topReason picks the explanation of the highest-magnitude contribution.
// Ties resolve to the earlier rule, so the result is deterministic.
func topReason(outcomes []RuleOutcome) string {
	best := -1
	bestMag := -1.0
	for i, o := range outcomes {
		mag := o.Contribution
		if mag < 0 {
			mag = -mag
		}
		if mag > bestMag {
			bestMag = mag
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return outcomes[best].Reason
}
