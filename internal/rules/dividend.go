package rules

import (
	"fmt"
	"sort"

	"kabu-advisor/internal/entity"
)

// dividendEngine scores the income strategy.
type dividendEngine struct {
	thresholds Thresholds
}

const (
	divYieldMin        = 0.030
	divYieldMax        = 0.050
	divPayoutMin       = 0.30
	divPayoutMax       = 0.60
	divConsecutiveMin  = 3
	divAnnualizeWindow = 4 // periods summed to estimate the annual dividend

	weightDivYield       = 2.0
	weightDivPayout      = 1.5
	weightDivConsecutive = 2.0
	weightDivNoCut       = 3.0
)

func (e *dividendEngine) evaluate(code, name string, quotes []entity.DailyQuote, snap Snapshot) *StockJudgment {
	close := latestClose(quotes)
	asOf := asOfDate(quotes, "")
	divs := sortDividendsByDate(snap.Dividends)
	statements := sortStatementsByDate(snap.Statements)

	outcomes := []RuleOutcome{
		e.ruleYield(close, divs),
		e.rulePayout(statements, divs),
		e.ruleConsecutive(divs),
		e.ruleNoCut(divs),
	}

	score := sumContributions(outcomes)
	return &StockJudgment{
		Code:     code,
		Name:     name,
		Strategy: StrategyDividend,
		Signal:   mapSignal(score, e.thresholds),
		Score:    score,
		Price:    close,
		AsOf:     asOf,
		Outcomes: outcomes,
	}
}

// ruleYield requires a dividend yield between 3.0% and 5.0%; higher yields are
// treated as a warning sign, not a pass.
func (e *dividendEngine) ruleYield(close *float64, divs []entity.Dividend) RuleOutcome {
	const threshold = "yield 3.0%..5.0%"
	if close == nil || *close == 0 {
		return noData("dividend_yield", threshold, "no price")
	}
	annual := annualDividend(divs)
	if annual == nil {
		return noData("dividend_yield", threshold, "no dividend data")
	}

	yield := *annual / *close
	value := yield * 100
	reason := fmt.Sprintf("yield=%.2f%% (annual dividend=%.0f yen)", yield*100, *annual)
	if yield > divYieldMax {
		reason += ", suspiciously high"
	}
	o := RuleOutcome{
		Name:      "dividend_yield",
		Value:     &value,
		Threshold: threshold,
		Reason:    reason,
	}
	return passFail(o, yield >= divYieldMin && yield <= divYieldMax, weightDivYield)
}

// rulePayout requires a payout ratio between 30% and 60%.
func (e *dividendEngine) rulePayout(statements []entity.Statement, divs []entity.Dividend) RuleOutcome {
	const threshold = "payout 30%..60%"
	latest := latestStatement(statements)
	if latest == nil {
		return noData("payout_ratio", threshold, "no statement data")
	}
	eps := latest.EPS
	annual := annualDividend(divs)
	if eps == nil || annual == nil || *eps == 0 {
		return noData("payout_ratio", threshold, "no EPS or dividend data")
	}

	payout := *annual / *eps
	value := payout * 100
	o := RuleOutcome{
		Name:      "payout_ratio",
		Value:     &value,
		Threshold: threshold,
		Reason:    fmt.Sprintf("payout=%.2f%%", payout*100),
	}
	return passFail(o, payout >= divPayoutMin && payout <= divPayoutMax, weightDivPayout)
}

// ruleConsecutive requires at least three consecutive paid periods.
func (e *dividendEngine) ruleConsecutive(divs []entity.Dividend) RuleOutcome {
	const threshold = ">= 3 consecutive paid periods"
	if len(divs) < divConsecutiveMin {
		return noData("consecutive_dividend", threshold, "not enough dividend history")
	}

	consecutive := 0
	for _, d := range divs {
		if d.DividendPerShare != nil && *d.DividendPerShare > 0 {
			consecutive++
		} else {
			break
		}
	}
	value := float64(consecutive)
	o := RuleOutcome{
		Name:      "consecutive_dividend",
		Value:     &value,
		Threshold: threshold,
		Reason:    fmt.Sprintf("%d consecutive paid periods", consecutive),
	}
	return passFail(o, consecutive >= divConsecutiveMin, weightDivConsecutive)
}

// ruleNoCut is a sell trigger: a cut or omission in the latest period scores
// -weight, anything else contributes nothing.
func (e *dividendEngine) ruleNoCut(divs []entity.Dividend) RuleOutcome {
	const threshold = "no cut or omission"
	if len(divs) < 2 {
		return RuleOutcome{Name: "dividend_cut_risk", Threshold: threshold, Reason: "not enough history, passing"}
	}

	prev := divs[len(divs)-2].DividendPerShare
	curr := divs[len(divs)-1].DividendPerShare
	if prev == nil || curr == nil {
		return RuleOutcome{Name: "dividend_cut_risk", Threshold: threshold, Reason: "no data, passing"}
	}

	switch {
	case *curr == 0:
		return sellTrigger(RuleOutcome{
			Name: "dividend_cut_risk", Value: curr, Threshold: threshold,
			Reason: "dividend omitted",
		}, true, weightDivNoCut)
	case *curr < *prev:
		return sellTrigger(RuleOutcome{
			Name: "dividend_cut_risk", Value: curr, Threshold: threshold,
			Reason: fmt.Sprintf("dividend cut: %.0f -> %.0f yen", *prev, *curr),
		}, true, weightDivNoCut)
	default:
		return RuleOutcome{
			Name: "dividend_cut_risk", Value: curr, Threshold: threshold,
			Reason: fmt.Sprintf("dividend held or raised: latest=%.0f yen", *curr),
		}
	}
}

func sortDividendsByDate(divs []entity.Dividend) []entity.Dividend {
	out := make([]entity.Dividend, len(divs))
	copy(out, divs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].RecordDate < out[j].RecordDate })
	return out
}

func annualDividend(divs []entity.Dividend) *float64 {
	if len(divs) == 0 {
		return nil
	}
	window := divs
	if len(window) > divAnnualizeWindow {
		window = window[len(window)-divAnnualizeWindow:]
	}
	sum := 0.0
	found := false
	for _, d := range window {
		if d.DividendPerShare != nil {
			sum += *d.DividendPerShare
			found = true
		}
	}
	if !found {
		return nil
	}
	return &sum
}
