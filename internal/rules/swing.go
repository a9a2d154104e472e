package rules

import (
	"fmt"
	"time"

	"kabu-advisor/internal/entity"
)

// swingEngine scores the short-horizon swing strategy.
type swingEngine struct {
	thresholds Thresholds
}

const (
	swingLiquidityThreshold  = 1_000_000_000.0 // 20-day average turnover, yen
	swingLiquidityWindow     = 20
	swingMAWindow            = 25
	swingEntryLookback       = 20
	swingStopLossThreshold   = -0.06
	swingTakeProfitThreshold = 0.12
	swingEarningsAvoidDays   = 5
	swingSentimentBand       = 0.2

	weightSwingLiquidity  = 1.5
	weightSwingTrend      = 2.5
	weightSwingEntry      = 2.0
	weightSwingStopLoss   = 1.0
	weightSwingTakeProfit = 1.0
	weightSwingEarnings   = 2.0
	weightSwingSentiment  = 1.0
)

func (e *swingEngine) evaluate(code, name string, quotes []entity.DailyQuote, snap Snapshot) *StockJudgment {
	close := latestClose(quotes)
	asOf := asOfDate(quotes, "")

	outcomes := []RuleOutcome{
		e.ruleLiquidity(quotes),
		e.ruleTrend(quotes, close),
		e.ruleEntryTiming(quotes, close),
	}
	stopLoss, takeProfit := e.rulePositionExit(close, snap.AcquisitionPrice)
	outcomes = append(outcomes, stopLoss, takeProfit)
	outcomes = append(outcomes,
		e.ruleEarningsAvoid(code, snap.Announcements, asOf),
		e.ruleNewsSentiment(snap.News),
	)

	score := sumContributions(outcomes)
	return &StockJudgment{
		Code:     code,
		Name:     name,
		Strategy: StrategySwing,
		Signal:   mapSignal(score, e.thresholds),
		Score:    score,
		Price:    close,
		AsOf:     asOf,
		Outcomes: outcomes,
	}
}

// ruleLiquidity requires a 20-day average turnover of at least one billion yen.
func (e *swingEngine) ruleLiquidity(quotes []entity.DailyQuote) RuleOutcome {
	const threshold = "20-day avg turnover >= 1B yen"
	if len(quotes) < swingLiquidityWindow {
		return noData("liquidity", threshold, "not enough quotes")
	}

	var values []float64
	for _, q := range quotes[len(quotes)-swingLiquidityWindow:] {
		turnover := q.TurnoverValue
		if turnover == nil && q.Close != nil && q.Volume != nil {
			v := *q.Close * *q.Volume
			turnover = &v
		}
		if turnover != nil {
			values = append(values, *turnover)
		}
	}
	if len(values) == 0 {
		return noData("liquidity", threshold, "no turnover data")
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	avg := sum / float64(len(values))
	o := RuleOutcome{
		Name:      "liquidity",
		Value:     &avg,
		Threshold: threshold,
		Reason:    fmt.Sprintf("20-day avg turnover=%.1f hundred million yen", avg/1e8),
	}
	return passFail(o, avg >= swingLiquidityThreshold, weightSwingLiquidity)
}

// ruleTrend requires the latest close above the 25-day moving average.
func (e *swingEngine) ruleTrend(quotes []entity.DailyQuote, close *float64) RuleOutcome {
	const threshold = "close > 25-day MA"
	ma := movingAverage(quotes, swingMAWindow)
	if close == nil || ma == nil {
		return noData("trend", threshold, "not enough quotes")
	}
	diff := *close - *ma
	o := RuleOutcome{
		Name:      "trend",
		Value:     &diff,
		Threshold: threshold,
		Reason:    fmt.Sprintf("close=%.0f, MA25=%.0f", *close, *ma),
	}
	return passFail(o, *close > *ma, weightSwingTrend)
}

// ruleEntryTiming passes on a pullback of -5%..-10% from the 20-day high, or a
// breakout above all prior highs in the lookback.
func (e *swingEngine) ruleEntryTiming(quotes []entity.DailyQuote, close *float64) RuleOutcome {
	const threshold = "pullback(-5%..-10%) or breakout"
	if close == nil || len(quotes) < 2 {
		return noData("entry_timing", threshold, "not enough quotes")
	}

	lookback := quotes
	if len(lookback) > swingEntryLookback {
		lookback = lookback[len(lookback)-swingEntryLookback:]
	}
	var highs []float64
	for _, q := range lookback {
		if q.High != nil {
			highs = append(highs, *q.High)
		}
	}
	if len(highs) == 0 {
		return noData("entry_timing", threshold, "no highs in lookback")
	}

	recentHigh := highs[0]
	for _, h := range highs {
		if h > recentHigh {
			recentHigh = h
		}
	}
	drawdown := *close/recentHigh - 1.0
	isPullback := drawdown >= -0.10 && drawdown <= -0.05

	prevHighs := highs
	if len(highs) > 1 {
		prevHighs = highs[:len(highs)-1]
	}
	maxPrev := prevHighs[0]
	for _, h := range prevHighs {
		if h > maxPrev {
			maxPrev = h
		}
	}
	isBreakout := *close > maxPrev

	var reason string
	switch {
	case isBreakout:
		reason = fmt.Sprintf("breakout: close=%.0f", *close)
	case isPullback:
		reason = fmt.Sprintf("pullback: %.1f%% off recent high", drawdown*100)
	default:
		reason = fmt.Sprintf("no setup: %.1f%% off recent high", drawdown*100)
	}

	value := drawdown * 100
	o := RuleOutcome{
		Name:      "entry_timing",
		Value:     &value,
		Threshold: threshold,
		Reason:    reason,
	}
	return passFail(o, isPullback || isBreakout, weightSwingEntry)
}

// rulePositionExit scores the stop-loss and take-profit sell triggers. Both
// contribute nothing during screening (no acquisition price supplied).
func (e *swingEngine) rulePositionExit(close, acquisition *float64) (RuleOutcome, RuleOutcome) {
	const (
		stopThreshold = "pnl <= -6% from acquisition"
		takeThreshold = "pnl >= +12% from acquisition"
	)
	if close == nil || acquisition == nil || *acquisition <= 0 {
		return noData("stop_loss", stopThreshold, "no acquisition price (screening)"),
			noData("take_profit", takeThreshold, "no acquisition price (screening)")
	}

	pnl := *close / *acquisition - 1.0
	value := pnl * 100
	stop := sellTrigger(RuleOutcome{
		Name:      "stop_loss",
		Value:     &value,
		Threshold: stopThreshold,
		Reason:    fmt.Sprintf("pnl=%.2f%%", pnl*100),
	}, pnl <= swingStopLossThreshold, weightSwingStopLoss)
	take := sellTrigger(RuleOutcome{
		Name:      "take_profit",
		Value:     &value,
		Threshold: takeThreshold,
		Reason:    fmt.Sprintf("pnl=%.2f%%", pnl*100),
	}, pnl >= swingTakeProfitThreshold, weightSwingTakeProfit)
	return stop, take
}

// ruleEarningsAvoid fails when an earnings announcement is scheduled within
// five business days of as_of.
func (e *swingEngine) ruleEarningsAvoid(code string, announcements []entity.Announcement, asOf string) RuleOutcome {
	const threshold = "no earnings within 5 business days"
	asOfTime, err := parseDate(asOf)
	if err != nil {
		o := RuleOutcome{Name: "earnings_avoid", Threshold: threshold, Reason: "as_of unknown, passing"}
		return passFail(o, true, weightSwingEarnings)
	}

	nearEvent := false
	for _, ann := range announcements {
		if ann.Code != "" && ann.Code != code {
			continue
		}
		annDate, err := parseDate(ann.Date)
		if err != nil || annDate.Before(asOfTime) {
			continue
		}
		if businessDaysBetween(asOfTime, annDate) <= swingEarningsAvoidDays {
			nearEvent = true
			break
		}
	}

	reason := "no earnings scheduled"
	if nearEvent {
		reason = "earnings scheduled (no new entries)"
	}
	o := RuleOutcome{Name: "earnings_avoid", Threshold: threshold, Reason: reason}
	return passFail(o, !nearEvent, weightSwingEarnings)
}

// ruleNewsSentiment scores the average ingested sentiment. The neutral band
// contributes nothing.
func (e *swingEngine) ruleNewsSentiment(news []entity.News) RuleOutcome {
	const threshold = "avg sentiment outside ±0.2"
	if len(news) == 0 {
		return noData("news_sentiment", threshold, "no news")
	}

	sum := 0.0
	for _, n := range news {
		sum += n.SentimentScore
	}
	avg := sum / float64(len(news))
	o := RuleOutcome{
		Name:      "news_sentiment",
		Value:     &avg,
		Threshold: threshold,
		Reason:    fmt.Sprintf("avg sentiment=%.2f over %d items", avg, len(news)),
	}
	switch {
	case avg >= swingSentimentBand:
		o.Passed = true
		o.Contribution = weightSwingSentiment
	case avg <= -swingSentimentBand:
		o.Contribution = -weightSwingSentiment
	}
	return o
}

func businessDaysBetween(start, end time.Time) int {
	if !end.After(start) {
		return 0
	}
	days := 0
	for cursor := start; cursor.Before(end); {
		cursor = cursor.AddDate(0, 0, 1)
		if wd := cursor.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days++
		}
	}
	return days
}
