package entity

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Ingested market data. These tables are written by the external fetcher and are
// read-only inside the engine; every row carries its source, source version and
// ingestion timestamp.

type DailyQuote struct {
	Code          string         `gorm:"primaryKey" json:"code"`
	Date          string         `gorm:"primaryKey" json:"date"`
	Open          *float64       `json:"open"`
	High          *float64       `json:"high"`
	Low           *float64       `json:"low"`
	Close         *float64       `json:"close"`
	Volume        *float64       `json:"volume"`
	TurnoverValue *float64       `json:"turnover_value"`
	RawJSON       datatypes.JSON `gorm:"type:jsonb" json:"raw_json"`
	Source        string         `json:"source"`
	SourceVersion string         `json:"source_version"`
	IngestedAt    time.Time      `json:"ingested_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DailyQuote) TableName() string {
	return "daily_quotes"
}

// IntradayQuote is the latest-price feed sampled by the survival monitor.
type IntradayQuote struct {
	Code       string    `gorm:"primaryKey" json:"code"`
	TsJST      string    `gorm:"primaryKey;column:ts_jst" json:"ts_jst"`
	Price      float64   `gorm:"not null" json:"price"`
	CumVolume  *float64  `json:"cum_volume"`
	Source     string    `json:"source"`
	IngestedAt time.Time `json:"ingested_at"`
}

func (IntradayQuote) TableName() string {
	return "intraday_quotes"
}

type Statement struct {
	Code            string         `gorm:"primaryKey" json:"code"`
	DisclosedDate   string         `gorm:"primaryKey" json:"disclosed_date"`
	NetSales        *float64       `json:"net_sales"`
	OperatingProfit *float64       `json:"operating_profit"`
	Equity          *float64       `json:"equity"`
	TotalAssets     *float64       `json:"total_assets"`
	NetIncome       *float64       `json:"net_income"`
	EPS             *float64       `gorm:"column:eps" json:"eps"`
	RawJSON         datatypes.JSON `gorm:"type:jsonb" json:"raw_json"`
	Source          string         `json:"source"`
	SourceVersion   string         `json:"source_version"`
	IngestedAt      time.Time      `json:"ingested_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Statement) TableName() string {
	return "statements"
}

type Dividend struct {
	Code             string         `gorm:"primaryKey" json:"code"`
	RecordDate       string         `gorm:"primaryKey" json:"record_date"`
	DividendPerShare *float64       `json:"dividend_per_share"`
	RawJSON          datatypes.JSON `gorm:"type:jsonb" json:"raw_json"`
	Source           string         `json:"source"`
	SourceVersion    string         `json:"source_version"`
	IngestedAt       time.Time      `json:"ingested_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Dividend) TableName() string {
	return "dividends"
}

type Announcement struct {
	Code          string         `gorm:"primaryKey" json:"code"`
	Date          string         `gorm:"primaryKey" json:"date"`
	RawJSON       datatypes.JSON `gorm:"type:jsonb" json:"raw_json"`
	Source        string         `json:"source"`
	SourceVersion string         `json:"source_version"`
	IngestedAt    time.Time      `json:"ingested_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Announcement) TableName() string {
	return "announcements"
}

type News struct {
	Code                string         `gorm:"primaryKey" json:"code"`
	URL                 string         `gorm:"primaryKey" json:"url"`
	PublishedAt         string         `gorm:"not null" json:"published_at"`
	Title               string         `gorm:"not null" json:"title"`
	Summary             string         `json:"summary"`
	SentimentScore      float64        `json:"sentiment_score"`
	SentimentMethod     string         `json:"sentiment_method"`
	SentimentModel      *string        `json:"sentiment_model"`
	SentimentConfidence *float64       `json:"sentiment_confidence"`
	Topics              pq.StringArray `gorm:"type:text[]" json:"topics"`
	Source              string         `json:"source"`
}

func (News) TableName() string {
	return "news"
}

// Watermark records the last successfully ingested publication time per
// (security, feed). Owned by the fetcher; the engine never reads or writes it,
// the entity exists for schema completeness only.
type Watermark struct {
	Code            string    `gorm:"primaryKey" json:"code"`
	Feed            string    `gorm:"primaryKey" json:"feed"`
	LastPublishedAt string    `json:"last_published_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Watermark) TableName() string {
	return "watermarks"
}
