package config

import (
	"kabu-advisor/internal/rules"
	"kabu-advisor/pkg/config"
)

// Config is the execution-service configuration.
type Config struct {
	App      config.App      `mapstructure:"app"`
	Logger   config.Logger   `mapstructure:"logger"`
	Database config.Database `mapstructure:"database"`
	Redis    config.Redis    `mapstructure:"redis"`
	Telegram config.Telegram `mapstructure:"telegram"`

	Judgment   Judgment     `mapstructure:"judgment"`
	Rules      rules.Config `mapstructure:"rules"`
	Quickstart Quickstart   `mapstructure:"quickstart"`
}

// Judgment tunes the end-of-day batch pipeline.
type Judgment struct {
	// Concurrency bounds the number of securities evaluated in parallel.
	Concurrency int `mapstructure:"concurrency"`
	// LookbackDays is the daily-quote window loaded into each snapshot.
	LookbackDays int `mapstructure:"lookback_days"`
	// NewsLimit caps the number of recent news rows per snapshot.
	NewsLimit int `mapstructure:"news_limit"`
}

// Quickstart tunes the intraday gap-up pipeline. All rates are fractions
// (0.10 = 10%), all clock values JST wall-clock strings.
type Quickstart struct {
	GapUpRateMin       float64 `mapstructure:"gap_up_rate_min"`
	VolumeRatioMin     float64 `mapstructure:"volume_ratio_min"`
	HighDistanceMax    float64 `mapstructure:"high_distance_max"`
	CandidateLimit     int     `mapstructure:"candidate_limit"`
	SurvivalDropLimit  float64 `mapstructure:"survival_drop_limit"`
	BaseTime           string  `mapstructure:"base_time"`
	MaxEntriesPerDay   int     `mapstructure:"max_entries_per_day"`
	EntryAllocationPct float64 `mapstructure:"entry_allocation_pct"`
	TakeProfitRate     float64 `mapstructure:"take_profit_rate"`
	StopLossRate       float64 `mapstructure:"stop_loss_rate"`
	TimeStopClock      string  `mapstructure:"time_stop_clock"`
	QuoteReadsPerMin   int     `mapstructure:"quote_reads_per_min"`
}

// DefaultQuickstart returns the stock intraday parameters.
func DefaultQuickstart() Quickstart {
	return Quickstart{
		GapUpRateMin:       0.10,
		VolumeRatioMin:     2.0,
		HighDistanceMax:    0.05,
		CandidateLimit:     10,
		SurvivalDropLimit:  -0.02,
		BaseTime:           "15:00",
		MaxEntriesPerDay:   2,
		EntryAllocationPct: 0.02,
		TakeProfitRate:     0.05,
		StopLossRate:       -0.02,
		TimeStopClock:      "09:30",
		QuoteReadsPerMin:   120,
	}
}

// Load reads the execution-service configuration and applies defaults for any
// zero-valued tunable.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := config.Load(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Judgment.Concurrency <= 0 {
		cfg.Judgment.Concurrency = 5
	}
	if cfg.Judgment.LookbackDays <= 0 {
		cfg.Judgment.LookbackDays = 400
	}
	if cfg.Judgment.NewsLimit <= 0 {
		cfg.Judgment.NewsLimit = 20
	}
	if cfg.Rules.StalenessDays <= 0 {
		cfg.Rules = rules.DefaultConfig()
	}
	def := DefaultQuickstart()
	qs := &cfg.Quickstart
	if qs.GapUpRateMin == 0 {
		qs.GapUpRateMin = def.GapUpRateMin
	}
	if qs.VolumeRatioMin == 0 {
		qs.VolumeRatioMin = def.VolumeRatioMin
	}
	if qs.HighDistanceMax == 0 {
		qs.HighDistanceMax = def.HighDistanceMax
	}
	if qs.CandidateLimit == 0 {
		qs.CandidateLimit = def.CandidateLimit
	}
	if qs.SurvivalDropLimit == 0 {
		qs.SurvivalDropLimit = def.SurvivalDropLimit
	}
	if qs.BaseTime == "" {
		qs.BaseTime = def.BaseTime
	}
	if qs.MaxEntriesPerDay == 0 {
		qs.MaxEntriesPerDay = def.MaxEntriesPerDay
	}
	if qs.EntryAllocationPct == 0 {
		qs.EntryAllocationPct = def.EntryAllocationPct
	}
	if qs.TakeProfitRate == 0 {
		qs.TakeProfitRate = def.TakeProfitRate
	}
	if qs.StopLossRate == 0 {
		qs.StopLossRate = def.StopLossRate
	}
	if qs.TimeStopClock == "" {
		qs.TimeStopClock = def.TimeStopClock
	}
	if qs.QuoteReadsPerMin == 0 {
		qs.QuoteReadsPerMin = def.QuoteReadsPerMin
	}
}
