package utils

import "time"

// Sales buckets and "today" cutoffs follow the café's local time, not UTC.
const StoreTimezone = "Asia/Seoul"

func StoreLocation() *time.Location {
	loc, err := time.LoadLocation(StoreTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func StoreDate(t time.Time) string {
	return t.In(StoreLocation()).Format("2006-01-02")
}

// StoreDay returns midnight of t's store-local calendar day.
func StoreDay(t time.Time) time.Time {
	local := t.In(StoreLocation())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, StoreLocation())
}

func StoreTime(t time.Time) string {
	return t.In(StoreLocation()).Format("15:04")
}
