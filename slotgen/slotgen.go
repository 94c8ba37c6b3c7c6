package slotgen

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"mentra/models"
)

// ClockRange is the 12-hour wire form of a time range. Internally everything
// is minutes since midnight; this type only exists at the JSON boundary.
type ClockRange struct {
	StartTime   string `json:"startTime"`
	StartPeriod string `json:"startPeriod"`
	EndTime     string `json:"endTime"`
	EndPeriod   string `json:"endPeriod"`
}

// ToMinutes converts a 12-hour clock value ("9", "9:30", "12") plus period
// into minutes since midnight. 12 AM maps to 0 and 12 PM to 720.
func ToMinutes(clock, period string) (int, error) {
	period = strings.ToUpper(strings.TrimSpace(period))
	if period != "AM" && period != "PM" {
		return 0, fmt.Errorf("invalid period %q", period)
	}

	hourPart := clock
	minutePart := "0"
	if idx := strings.Index(clock, ":"); idx >= 0 {
		hourPart = clock[:idx]
		minutePart = clock[idx+1:]
	}

	hour, err := strconv.Atoi(strings.TrimSpace(hourPart))
	if err != nil || hour < 1 || hour > 12 {
		return 0, fmt.Errorf("invalid hour %q", clock)
	}
	minute, err := strconv.Atoi(strings.TrimSpace(minutePart))
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minutes %q", clock)
	}

	if hour == 12 {
		hour = 0
	}
	total := hour*60 + minute
	if period == "PM" {
		total += 12 * 60
	}
	return total, nil
}

// FromMinutes converts minutes since midnight back to the 12-hour display
// pair. Values >= 1440 wrap (a range ending at midnight shows as 12 AM).
func FromMinutes(min int) (string, string) {
	min = ((min % 1440) + 1440) % 1440
	hour := min / 60
	minute := min % 60

	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}

	if minute == 0 {
		return strconv.Itoa(hour12), period
	}
	return fmt.Sprintf("%d:%02d", hour12, minute), period
}

// Minutes resolves the range endpoints to minutes since midnight.
func (c ClockRange) Minutes() (int, int, error) {
	start, err := ToMinutes(c.StartTime, c.StartPeriod)
	if err != nil {
		return 0, 0, err
	}
	end, err := ToMinutes(c.EndTime, c.EndPeriod)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// RangeFromMinutes builds the display form for a [start, end) minute pair.
func RangeFromMinutes(start, end int) ClockRange {
	st, sp := FromMinutes(start)
	et, ep := FromMinutes(end)
	return ClockRange{StartTime: st, StartPeriod: sp, EndTime: et, EndPeriod: ep}
}

// SplitIntoDurationSlots expands [startMin, endMin) into consecutive slots of
// durationMin each. A trailing remainder shorter than the duration is dropped.
func SplitIntoDurationSlots(startMin, endMin, durationMin int) []models.Slot {
	slots := []models.Slot{}
	if durationMin <= 0 {
		return slots
	}
	for cur := startMin; cur+durationMin <= endMin; cur += durationMin {
		slots = append(slots, models.Slot{StartMin: cur, EndMin: cur + durationMin})
	}
	return slots
}

// SortSlots orders a bucket by start minute, in place.
func SortSlots(slots []models.Slot) {
	sort.Slice(slots, func(i, j int) bool { return slots[i].StartMin < slots[j].StartMin })
}

// ExpandRawSlots bucketizes every raw range of a weekday through
// SplitIntoDurationSlots, preserving range order.
func ExpandRawSlots(raw []models.TimeRange, durationMin int) []models.Slot {
	slots := []models.Slot{}
	for _, r := range raw {
		slots = append(slots, SplitIntoDurationSlots(r.StartMin, r.EndMin, durationMin)...)
	}
	return slots
}

// MonthDay is one calendar date of a monthly expansion.
type MonthDay struct {
	Date  string        `json:"date"`
	Day   int           `json:"day"`
	Slots []models.Slot `json:"slots"`
}

// GenerateMonthlyAvailability projects the weekly template onto every
// calendar date of the given month. Slots are attached unfiltered; live
// filters (daily cap, notice) are the projector's job.
func GenerateMonthlyAvailability(weekly []models.DaySlots, year int, month time.Month, loc *time.Location) []MonthDay {
	byDay := make(map[int][]models.Slot, len(weekly))
	for _, d := range weekly {
		byDay[d.Day] = d.Slots
	}

	var days []MonthDay
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		weekday := int(d.Weekday())
		slots := byDay[weekday]
		if slots == nil {
			slots = []models.Slot{}
		}
		days = append(days, MonthDay{
			Date:  d.Format("2006-01-02"),
			Day:   weekday,
			Slots: slots,
		})
	}
	return days
}
