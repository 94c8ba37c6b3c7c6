package availability

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"mentra/db"
	"mentra/models"
	"mentra/slotgen"
)

// ProjectedDay is one calendar date of the month view after live filters.
type ProjectedDay struct {
	Date  string               `json:"date"`
	Day   int                  `json:"day"`
	Slots []slotgen.ClockRange `json:"slots"`
}

// ProjectMonth expands the weekly template onto the requested month and
// applies the two live filters per date: full-day hide once the daily cap is
// reached, then the minimum-notice cutoff per slot.
func ProjectMonth(ctx context.Context, avail *models.Availability, year int, month time.Month, now time.Time) ([]ProjectedDay, error) {
	loc := slotgen.Location(avail.Timezone)
	days := slotgen.GenerateMonthlyAvailability(avail.WeeklySlots, year, month, loc)

	projected := make([]ProjectedDay, 0, len(days))
	for _, d := range days {
		date, err := time.ParseInLocation("2006-01-02", d.Date, loc)
		if err != nil {
			return nil, err
		}

		slots := d.Slots
		if avail.MaxBookingsPerDay > 0 && len(slots) > 0 {
			dayStart, dayEnd := slotgen.DayWindow(date, loc)
			count, err := db.AppointmentsCollection.CountDocuments(ctx, bson.M{
				"mentorId":    avail.MentorID,
				"status":      models.StatusScheduled,
				"meetingDate": bson.M{"$gte": dayStart, "$lt": dayEnd},
			})
			if err != nil {
				return nil, err
			}
			if count >= int64(avail.MaxBookingsPerDay) {
				slots = nil
			}
		}

		kept := FilterByNotice(date, slots, now, avail.MinNoticeHours, loc)

		display := make([]slotgen.ClockRange, 0, len(kept))
		for _, s := range kept {
			display = append(display, slotgen.RangeFromMinutes(s.StartMin, s.EndMin))
		}
		projected = append(projected, ProjectedDay{Date: d.Date, Day: d.Day, Slots: display})
	}
	return projected, nil
}

// FilterByNotice keeps only slots whose absolute start is at or beyond
// now + noticeHours.
func FilterByNotice(date time.Time, slots []models.Slot, now time.Time, noticeHours int, loc *time.Location) []models.Slot {
	cutoff := now.Add(time.Duration(noticeHours) * time.Hour)
	kept := []models.Slot{}
	for _, s := range slots {
		if !slotgen.SlotStartAt(date, s, loc).Before(cutoff) {
			kept = append(kept, s)
		}
	}
	return kept
}
