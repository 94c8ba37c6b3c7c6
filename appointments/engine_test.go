package appointments

import (
	"testing"
	"time"

	"mentra/models"
	"mentra/slotgen"
)

func TestBucketFor(t *testing.T) {
	avail := &models.Availability{
		WeeklySlots: []models.DaySlots{
			{Day: 0},
			{Day: 1, RawSlots: []models.TimeRange{{StartMin: 540, EndMin: 720}}},
		},
	}

	if b := bucketFor(avail, 1); b == nil || len(b.RawSlots) != 1 {
		t.Fatal("expected the Monday bucket with its raw range")
	}
	if b := bucketFor(avail, 5); b != nil {
		t.Fatal("missing weekday should yield nil bucket")
	}
}

func TestHasOverlap(t *testing.T) {
	base := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	appts := []models.Appointment{
		{ID: "apt1", MeetingDate: base, EndTime: base.Add(time.Hour)},
	}

	cases := []struct {
		name       string
		start, end time.Time
		exclude    string
		want       bool
	}{
		{"identical window", base, base.Add(time.Hour), "", true},
		{"straddles the end", base.Add(30 * time.Minute), base.Add(90 * time.Minute), "", true},
		{"contained inside", base.Add(10 * time.Minute), base.Add(20 * time.Minute), "", true},
		{"back to back after", base.Add(time.Hour), base.Add(2 * time.Hour), "", false},
		{"back to back before", base.Add(-time.Hour), base, "", false},
		{"own window excluded", base, base.Add(time.Hour), "apt1", false},
	}
	for _, c := range cases {
		if got := hasOverlap(appts, c.start, c.end, c.exclude); got != c.want {
			t.Errorf("%s: hasOverlap = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestCountWithinDay(t *testing.T) {
	loc := slotgen.Location("Asia/Kolkata")
	appts := []models.Appointment{
		{ID: "a", MeetingDate: time.Date(2025, 6, 2, 4, 30, 0, 0, time.UTC)},  // Jun 2 10:00 local
		{ID: "b", MeetingDate: time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC)}, // Jun 2 16:00 local
		{ID: "c", MeetingDate: time.Date(2025, 6, 2, 20, 0, 0, 0, time.UTC)},  // Jun 3 01:30 local
	}
	day := time.Date(2025, 6, 2, 6, 0, 0, 0, time.UTC)

	if got := countWithinDay(appts, day, loc, ""); got != 2 {
		t.Fatalf("expected 2 bookings on the local day, got %d", got)
	}
	// The late-UTC booking belongs to the next local calendar day.
	if got := countWithinDay(appts, time.Date(2025, 6, 2, 20, 0, 0, 0, time.UTC), loc, ""); got != 1 {
		t.Fatalf("expected 1 booking on the next local day, got %d", got)
	}
	if got := countWithinDay(appts, day, loc, "b"); got != 1 {
		t.Fatalf("excluding a booking should drop the count to 1, got %d", got)
	}
}

func TestDailyCapBoundary(t *testing.T) {
	loc := time.UTC
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, loc)
	appts := []models.Appointment{
		{ID: "a", MeetingDate: day.Add(9 * time.Hour)},
		{ID: "b", MeetingDate: day.Add(11 * time.Hour)},
	}

	// Two bookings held: a cap of 3 still admits one more, a cap of 2 is full.
	if countWithinDay(appts, day.Add(14*time.Hour), loc, "") >= 3 {
		t.Error("cap of 3 with 2 bookings must not read as reached")
	}
	if countWithinDay(appts, day.Add(14*time.Hour), loc, "") < 2 {
		t.Error("cap of 2 with 2 bookings must read as reached")
	}
}

func TestEndTimeMatchesDuration(t *testing.T) {
	// endTime == meetingDate + meetingDuration for any booking
	meetingDate := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	for _, duration := range []int{30, 45, 60, 90} {
		end := meetingDate.Add(time.Duration(duration) * time.Minute)
		if got := int(end.Sub(meetingDate).Minutes()); got != duration {
			t.Errorf("duration %d: got %d", duration, got)
		}
	}
}

func TestSlotSignatureStableAcrossReschedule(t *testing.T) {
	loc := slotgen.Location("Asia/Kolkata")

	// Booked at 60 minutes; policy later changed to 30. The old signature
	// must still derive from the stored window, not the current policy.
	meetingDate := time.Date(2025, 6, 2, 4, 30, 0, 0, time.UTC) // 10:00 local
	endTime := meetingDate.Add(60 * time.Minute)

	storedDuration := int(endTime.Sub(meetingDate).Minutes())
	day, sig := slotgen.SlotKeyFor(meetingDate, loc, storedDuration)

	if day != 1 {
		t.Fatalf("expected Monday, got %d", day)
	}
	if sig.StartMin != 600 || sig.EndMin != 660 {
		t.Fatalf("expected the original 10-11 AM signature, got %v", sig)
	}
}

func TestSameDayRescheduleSignaturesDiffer(t *testing.T) {
	loc := slotgen.Location("Asia/Kolkata")

	oldDate := time.Date(2025, 6, 2, 4, 30, 0, 0, time.UTC) // 10:00 Monday local
	newDate := time.Date(2025, 6, 2, 5, 30, 0, 0, time.UTC) // 11:00 Monday local

	oldDay, oldSig := slotgen.SlotKeyFor(oldDate, loc, 60)
	newDay, newSig := slotgen.SlotKeyFor(newDate, loc, 60)

	if oldDay != newDay {
		t.Fatal("both instants should land on the same weekday")
	}
	if oldSig == newSig {
		t.Fatal("distinct instants must yield distinct signatures")
	}
}
