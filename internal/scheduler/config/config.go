package config

import (
	"kabu-advisor/pkg/config"
)

// Config is the scheduling-service configuration.
type Config struct {
	App      config.App      `mapstructure:"app"`
	Logger   config.Logger   `mapstructure:"logger"`
	Database config.Database `mapstructure:"database"`
	Redis    config.Redis    `mapstructure:"redis"`
	API      config.API      `mapstructure:"api"`

	Schedules Schedules `mapstructure:"schedules"`
}

// Schedules holds one cron spec per tick type. All specs run on the JST clock;
// the defaults reproduce the exchange timeline: scan before the close cross,
// survival sampling each minute of the pre-close window, entries inside it,
// exits in the next morning window and the judgment batch after hours.
type Schedules struct {
	JudgmentBatch string `mapstructure:"judgment_batch"`
	CandidateScan string `mapstructure:"candidate_scan"`
	SurvivalTest  string `mapstructure:"survival_test"`
	EntrySignal   string `mapstructure:"entry_signal"`
	ExitSignal    string `mapstructure:"exit_signal"`
}

// Load reads the scheduling-service configuration and applies schedule
// defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := config.Load(path, cfg); err != nil {
		return nil, err
	}
	sc := &cfg.Schedules
	if sc.JudgmentBatch == "" {
		sc.JudgmentBatch = "30 16 * * 1-5"
	}
	if sc.CandidateScan == "" {
		sc.CandidateScan = "50 14 * * 1-5"
	}
	if sc.SurvivalTest == "" {
		sc.SurvivalTest = "0-15 15 * * 1-5"
	}
	if sc.EntrySignal == "" {
		sc.EntrySignal = "5-14 15 * * 1-5"
	}
	if sc.ExitSignal == "" {
		sc.ExitSignal = "0-30 9 * * 1-5"
	}
	return cfg, nil
}
