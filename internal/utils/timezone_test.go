package utils

import (
	"testing"
	"time"
)

func TestStoreDateCrossesUTCMidnight(t *testing.T) {
	// 16:00 UTC is already the next calendar day in Seoul.
	late := time.Date(2026, 8, 28, 16, 0, 0, 0, time.UTC)
	if got := StoreDate(late); got != "2026-08-29" {
		t.Fatalf("StoreDate = %s, want 2026-08-29", got)
	}
}

func TestStoreDayIsLocalMidnight(t *testing.T) {
	late := time.Date(2026, 8, 28, 16, 30, 0, 0, time.UTC)
	day := StoreDay(late)
	if day.Hour() != 0 || day.Minute() != 0 {
		t.Fatalf("expected midnight, got %v", day)
	}
	if StoreDate(day) != "2026-08-29" {
		t.Fatalf("StoreDay landed on %s, want 2026-08-29", StoreDate(day))
	}
}
