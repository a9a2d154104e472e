package rules

import (
	"fmt"
	"sort"
	"time"

	"kabu-advisor/internal/entity"
	"kabu-advisor/pkg/apperrors"
)

// Strategy names. The set is closed: each strategy is a fixed, ordered rule
// list chosen at configuration time.
const (
	StrategySwing       = "swing"
	StrategyFundamental = "fundamental"
	StrategyDividend    = "dividend"
)

// Config holds the evaluator parameters the operator may tune.
type Config struct {
	// StalenessDays is how old the newest daily quote may be, relative to
	// as_of, before evaluation fails with DataIncomplete.
	StalenessDays int        `mapstructure:"staleness_days"`
	Swing         Thresholds `mapstructure:"swing"`
	Fundamental   Thresholds `mapstructure:"fundamental"`
	Dividend      Thresholds `mapstructure:"dividend"`
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		StalenessDays: 7,
		Swing:         Thresholds{Buy: 2.0, Sell: -2.0},
		Fundamental:   Thresholds{Buy: 2.0, Sell: -2.0},
		Dividend:      Thresholds{Buy: 2.0, Sell: -2.0},
	}
}

// Orchestrator evaluates every configured strategy for one security.
type Orchestrator struct {
	cfg         Config
	swing       *swingEngine
	fundamental *fundamentalEngine
	dividend    *dividendEngine
}

// NewOrchestrator creates an orchestrator with the given thresholds.
func NewOrchestrator(cfg Config) *Orchestrator {
	if cfg.StalenessDays <= 0 {
		cfg.StalenessDays = DefaultConfig().StalenessDays
	}
	return &Orchestrator{
		cfg:         cfg,
		swing:       &swingEngine{thresholds: cfg.Swing},
		fundamental: &fundamentalEngine{thresholds: cfg.Fundamental},
		dividend:    &dividendEngine{thresholds: cfg.Dividend},
	}
}

// Strategies returns the configured strategy names in evaluation order.
func (o *Orchestrator) Strategies() []string {
	return []string{StrategySwing, StrategyFundamental, StrategyDividend}
}

// Evaluate runs one named strategy against a snapshot. It fails with
// DataIncomplete when the snapshot has no usable quote within the staleness
// window of asOf.
func (o *Orchestrator) Evaluate(strategy, code, name string, asOf string, snap Snapshot) (*StockJudgment, error) {
	quotes := sortQuotesByDate(snap.Quotes)
	if err := o.checkStaleness(code, strategy, asOf, quotes); err != nil {
		return nil, err
	}

	switch strategy {
	case StrategySwing:
		return o.swing.evaluate(code, name, quotes, snap), nil
	case StrategyFundamental:
		return o.fundamental.evaluate(code, name, quotes, snap), nil
	case StrategyDividend:
		return o.dividend.evaluate(code, name, quotes, snap), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", strategy)
	}
}

// EvaluateAll runs every strategy, keyed by strategy name.
func (o *Orchestrator) EvaluateAll(code, name string, asOf string, snap Snapshot) (map[string]*StockJudgment, error) {
	out := make(map[string]*StockJudgment, len(o.Strategies()))
	for _, strategy := range o.Strategies() {
		j, err := o.Evaluate(strategy, code, name, asOf, snap)
		if err != nil {
			return nil, err
		}
		out[strategy] = j
	}
	return out, nil
}

func (o *Orchestrator) checkStaleness(code, strategy, asOf string, quotes []entity.DailyQuote) error {
	if len(quotes) == 0 {
		return apperrors.NewDataIncomplete(code, strategy, "no daily quotes in snapshot")
	}
	asOfDate, err := parseDate(asOf)
	if err != nil {
		return apperrors.NewDataIncomplete(code, strategy, fmt.Sprintf("invalid as_of %q", asOf))
	}
	latest, err := parseDate(quotes[len(quotes)-1].Date)
	if err != nil {
		return apperrors.NewDataIncomplete(code, strategy, "latest quote has no parseable date")
	}
	if asOfDate.Sub(latest) > time.Duration(o.cfg.StalenessDays)*24*time.Hour {
		return apperrors.NewDataIncomplete(code, strategy,
			fmt.Sprintf("latest quote %s is older than %d days before as_of %s", quotes[len(quotes)-1].Date, o.cfg.StalenessDays, asOf))
	}
	return nil
}

// ── shared helpers ──

func parseDate(s string) (time.Time, error) {
	if len(s) > 10 {
		s = s[:10]
	}
	return time.Parse("2006-01-02", s)
}

func sortQuotesByDate(quotes []entity.DailyQuote) []entity.DailyQuote {
	out := make([]entity.DailyQuote, len(quotes))
	copy(out, quotes)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func latestClose(quotes []entity.DailyQuote) *float64 {
	for i := len(quotes) - 1; i >= 0; i-- {
		if quotes[i].Close != nil {
			return quotes[i].Close
		}
	}
	return nil
}

func asOfDate(quotes []entity.DailyQuote, fallback string) string {
	if len(quotes) > 0 && quotes[len(quotes)-1].Date != "" {
		return quotes[len(quotes)-1].Date
	}
	return fallback
}

func movingAverage(quotes []entity.DailyQuote, window int) *float64 {
	var closes []float64
	for _, q := range quotes {
		if q.Close != nil {
			closes = append(closes, *q.Close)
		}
	}
	if len(closes) < window {
		return nil
	}
	sum := 0.0
	for _, c := range closes[len(closes)-window:] {
		sum += c
	}
	avg := sum / float64(window)
	return &avg
}

func noData(name, threshold, reason string) RuleOutcome {
	return RuleOutcome{Name: name, Threshold: threshold, Passed: false, Reason: reason}
}

// passFail maps a boolean rule to its signed contribution: +weight on pass,
// -weight on fail.
func passFail(o RuleOutcome, passed bool, weight float64) RuleOutcome {
	o.Passed = passed
	if passed {
		o.Contribution = weight
	} else {
		o.Contribution = -weight
	}
	return o
}

// sellTrigger maps an exit rule: -weight when triggered, 0 otherwise.
func sellTrigger(o RuleOutcome, triggered bool, weight float64) RuleOutcome {
	o.Passed = triggered
	if triggered {
		o.Contribution = -weight
	}
	return o
}

func sumContributions(outcomes []RuleOutcome) float64 {
	total := 0.0
	for _, o := range outcomes {
		total += o.Contribution
	}
	return total
}
