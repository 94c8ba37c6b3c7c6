package slotgen

import (
	"testing"
	"time"
)

func TestSlotKeyFor(t *testing.T) {
	kolkata := Location("Asia/Kolkata")

	// 2025-06-02 04:30 UTC is 10:00 Monday in Kolkata (+5:30)
	instant := time.Date(2025, 6, 2, 4, 30, 0, 0, time.UTC)
	day, slot := SlotKeyFor(instant, kolkata, 60)

	if day != 1 {
		t.Errorf("expected Monday (1), got %d", day)
	}
	if slot.StartMin != 600 || slot.EndMin != 660 {
		t.Errorf("expected 10-11 AM signature, got %v", slot)
	}
}

func TestSlotKeyForCrossesMidnight(t *testing.T) {
	kolkata := Location("Asia/Kolkata")

	// 2025-06-01 20:00 UTC is 01:30 Monday in Kolkata
	instant := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	day, slot := SlotKeyFor(instant, kolkata, 30)

	if day != 1 {
		t.Errorf("expected Monday (1), got %d", day)
	}
	if slot.StartMin != 90 {
		t.Errorf("expected 01:30 start (90), got %d", slot.StartMin)
	}
}

func TestDayWindow(t *testing.T) {
	ny := Location("America/New_York")

	// 2025-06-02 01:00 UTC is still 2025-06-01 in New York
	instant := time.Date(2025, 6, 2, 1, 0, 0, 0, time.UTC)
	start, end := DayWindow(instant, ny)

	if start.Day() != 1 || start.Hour() != 0 {
		t.Errorf("unexpected window start %v", start)
	}
	if !end.Equal(start.AddDate(0, 0, 1)) {
		t.Errorf("window should span exactly one day: %v..%v", start, end)
	}
	if !instant.After(start) || !instant.Before(end) {
		t.Error("instant must fall inside its own day window")
	}
}

func TestLocationFallback(t *testing.T) {
	loc := Location("Not/AZone")
	if loc == nil {
		t.Fatal("Location must never return nil")
	}
	if loc2 := Location(""); loc2.String() != DefaultTimezone {
		t.Errorf("empty name should resolve to %s, got %s", DefaultTimezone, loc2)
	}
}
