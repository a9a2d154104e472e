package utils

import (
	"log"
	"time"
)

// All intraday thresholds are defined in exchange local time, so the JST clock is
// the only wall clock the quickstart pipeline uses.

func GetJSTLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		log.Fatal("Failed to load location", err)
	}
	return loc
}

func TimeNowJST() time.Time {
	return time.Now().In(GetJSTLocation())
}

// TradeDate formats a timestamp as the ISO trade-date string.
func TradeDate(t time.Time) string {
	return t.In(GetJSTLocation()).Format("2006-01-02")
}

// TimestampJST formats a timestamp as an ISO-8601 second-resolution JST string.
func TimestampJST(t time.Time) string {
	return t.In(GetJSTLocation()).Format("2006-01-02T15:04:05+09:00")
}
