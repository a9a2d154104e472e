package entity

import "time"

// Stock is one security in the watch universe.
type Stock struct {
	Code      string    `gorm:"primaryKey" json:"code"`
	Name      string    `gorm:"not null" json:"name"`
	Market    string    `json:"market"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Stock) TableName() string {
	return "stocks"
}
