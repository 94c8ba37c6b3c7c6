package slotgen

import (
	"log"
	"time"

	"mentra/models"
)

// DefaultTimezone preserves the platform's original mentor-local behavior
// for availability records written before timezones became per-mentor.
const DefaultTimezone = "Asia/Kolkata"

// Location resolves an IANA timezone name, falling back to the default when
// the name is empty or unknown.
func Location(name string) *time.Location {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("[slotgen] unknown timezone %q, using %s", name, DefaultTimezone)
		loc, err = time.LoadLocation(DefaultTimezone)
		if err != nil {
			return time.FixedZone("IST", 5*3600+1800)
		}
	}
	return loc
}

// SlotKeyFor derives the weekday bucket and slot signature of an absolute
// instant in the given mentor-local timezone.
func SlotKeyFor(t time.Time, loc *time.Location, durationMin int) (int, models.Slot) {
	lt := t.In(loc)
	start := lt.Hour()*60 + lt.Minute()
	return int(lt.Weekday()), models.Slot{StartMin: start, EndMin: start + durationMin}
}

// DayWindow returns the [start, end) bounds of the mentor-local calendar day
// containing t.
func DayWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	lt := t.In(loc)
	start := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// SlotStartAt anchors a slot's start minute onto a calendar date in the
// given timezone, yielding the absolute instant the slot begins.
func SlotStartAt(date time.Time, slot models.Slot, loc *time.Location) time.Time {
	ld := date.In(loc)
	return time.Date(ld.Year(), ld.Month(), ld.Day(), slot.StartMin/60, slot.StartMin%60, 0, 0, loc)
}
