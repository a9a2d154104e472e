package rules

import (
	"fmt"
	"math"
	"sort"

	"kabu-advisor/internal/entity"
)

// fundamentalEngine scores the mid/long-horizon fundamentals strategy.
type fundamentalEngine struct {
	thresholds Thresholds
}

const (
	fundSalesCAGRThreshold   = 0.05
	fundOpMarginThreshold    = 0.10
	fundEquityRatioThreshold = 0.40
	fundROEThreshold         = 0.08

	weightFundSalesCAGR   = 2.0
	weightFundOpMargin    = 2.5
	weightFundEquityRatio = 1.5
	weightFundROE         = 2.0
	weightFundMomentum    = 1.0
)

func (e *fundamentalEngine) evaluate(code, name string, quotes []entity.DailyQuote, snap Snapshot) *StockJudgment {
	close := latestClose(quotes)
	asOf := asOfDate(quotes, "")
	statements := sortStatementsByDate(snap.Statements)

	outcomes := []RuleOutcome{
		e.ruleSalesCAGR(statements),
		e.ruleOperatingMargin(statements),
		e.ruleEquityRatio(statements),
		e.ruleROE(statements),
		e.ruleMomentum(quotes, close),
	}

	score := sumContributions(outcomes)
	return &StockJudgment{
		Code:     code,
		Name:     name,
		Strategy: StrategyFundamental,
		Signal:   mapSignal(score, e.thresholds),
		Score:    score,
		Price:    close,
		AsOf:     asOf,
		Outcomes: outcomes,
	}
}

// ruleSalesCAGR requires annualized sales growth of at least +5% across the
// statement history.
func (e *fundamentalEngine) ruleSalesCAGR(statements []entity.Statement) RuleOutcome {
	const threshold = "sales CAGR >= +5%/yr"
	type point struct {
		date  string
		sales float64
	}
	var points []point
	for _, st := range statements {
		if st.NetSales != nil && *st.NetSales > 0 {
			points = append(points, point{date: st.DisclosedDate, sales: *st.NetSales})
		}
	}
	if len(points) < 2 {
		return noData("sales_cagr", threshold, "not enough statements")
	}

	start, err1 := parseDate(points[0].date)
	end, err2 := parseDate(points[len(points)-1].date)
	if err1 != nil || err2 != nil {
		return noData("sales_cagr", threshold, "unparseable statement dates")
	}
	years := end.Sub(start).Hours() / 24 / 365.25
	if years <= 0 {
		return noData("sales_cagr", threshold, "statement dates not increasing")
	}

	cagr := math.Pow(points[len(points)-1].sales/points[0].sales, 1.0/years) - 1.0
	value := cagr * 100
	o := RuleOutcome{
		Name:      "sales_cagr",
		Value:     &value,
		Threshold: threshold,
		Reason:    fmt.Sprintf("CAGR=%.2f%%", cagr*100),
	}
	return passFail(o, cagr >= fundSalesCAGRThreshold, weightFundSalesCAGR)
}

// ruleOperatingMargin requires the latest operating margin of at least 10%.
func (e *fundamentalEngine) ruleOperatingMargin(statements []entity.Statement) RuleOutcome {
	const threshold = "operating margin >= 10%"
	latest := latestStatement(statements)
	if latest == nil || latest.NetSales == nil || latest.OperatingProfit == nil || *latest.NetSales == 0 {
		return noData("operating_margin", threshold, "no statement data")
	}

	margin := *latest.OperatingProfit / *latest.NetSales
	value := margin * 100
	o := RuleOutcome{
		Name:      "operating_margin",
		Value:     &value,
		Threshold: threshold,
		Reason:    fmt.Sprintf("operating margin=%.2f%%", margin*100),
	}
	return passFail(o, margin >= fundOpMarginThreshold, weightFundOpMargin)
}

// ruleEquityRatio requires an equity ratio of at least 40%.
func (e *fundamentalEngine) ruleEquityRatio(statements []entity.Statement) RuleOutcome {
	const threshold = "equity ratio >= 40%"
	latest := latestStatement(statements)
	if latest == nil || latest.Equity == nil || latest.TotalAssets == nil || *latest.TotalAssets == 0 {
		return noData("equity_ratio", threshold, "no statement data")
	}

	ratio := *latest.Equity / *latest.TotalAssets
	value := ratio * 100
	o := RuleOutcome{
		Name:      "equity_ratio",
		Value:     &value,
		Threshold: threshold,
		Reason:    fmt.Sprintf("equity ratio=%.2f%%", ratio*100),
	}
	return passFail(o, ratio >= fundEquityRatioThreshold, weightFundEquityRatio)
}

// ruleROE requires a return on equity of at least 8%.
func (e *fundamentalEngine) ruleROE(statements []entity.Statement) RuleOutcome {
	const threshold = "ROE >= 8%"
	latest := latestStatement(statements)
	if latest == nil || latest.NetIncome == nil || latest.Equity == nil || *latest.Equity == 0 {
		return noData("roe", threshold, "no statement data")
	}

	roe := *latest.NetIncome / *latest.Equity
	value := roe * 100
	o := RuleOutcome{
		Name:      "roe",
		Value:     &value,
		Threshold: threshold,
		Reason:    fmt.Sprintf("ROE=%.2f%%", roe*100),
	}
	return passFail(o, roe >= fundROEThreshold, weightFundROE)
}

// ruleMomentum requires the latest close above the 25-day moving average.
func (e *fundamentalEngine) ruleMomentum(quotes []entity.DailyQuote, close *float64) RuleOutcome {
	const threshold = "close > 25-day MA"
	ma := movingAverage(quotes, swingMAWindow)
	if close == nil || ma == nil {
		return noData("momentum_ma25", threshold, "not enough quotes")
	}
	diff := *close - *ma
	o := RuleOutcome{
		Name:      "momentum_ma25",
		Value:     &diff,
		Threshold: threshold,
		Reason:    fmt.Sprintf("close=%.0f, MA25=%.0f", *close, *ma),
	}
	return passFail(o, *close > *ma, weightFundMomentum)
}

func sortStatementsByDate(statements []entity.Statement) []entity.Statement {
	out := make([]entity.Statement, len(statements))
	copy(out, statements)
	sort.SliceStable(out, func(i, j int) bool { return out[i].DisclosedDate < out[j].DisclosedDate })
	return out
}

func latestStatement(statements []entity.Statement) *entity.Statement {
	if len(statements) == 0 {
		return nil
	}
	return &statements[len(statements)-1]
}
