package appointments

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mentra/db"
	"mentra/models"
)

// These tests run the booking engine against a live mongod. They skip unless
// MENTRA_TEST_MONGODB_URI is set (e.g. mongodb://localhost:27017).

func testDatabase(t *testing.T) (*mongo.Database, context.Context) {
	t.Helper()
	uri := os.Getenv("MENTRA_TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("MENTRA_TEST_MONGODB_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { client.Disconnect(context.Background()) })
	mdb := client.Database("mentra_test")

	prevAvail := db.AvailabilityCollection
	prevAppts := db.AppointmentsCollection
	prevUsers := db.UserCollection
	db.AvailabilityCollection = mdb.Collection("availability")
	db.AppointmentsCollection = mdb.Collection("appointments")
	db.UserCollection = mdb.Collection("users")
	t.Cleanup(func() {
		db.AvailabilityCollection = prevAvail
		db.AppointmentsCollection = prevAppts
		db.UserCollection = prevUsers
	})
	return mdb, ctx
}

// mondayAvailability builds a 9 AM-12 PM Monday template at 60 minutes with
// the given live inventory.
func mondayAvailability(mentorID string, slots []models.Slot) models.Availability {
	return models.Availability{
		MentorID: mentorID,
		WeeklySlots: []models.DaySlots{{
			Day:      1,
			RawSlots: []models.TimeRange{{StartMin: 540, EndMin: 720}},
			Slots:    slots,
		}},
		MeetingDuration: 60,
		Timezone:        "UTC",
	}
}

func seedAvailability(t *testing.T, ctx context.Context, avail models.Availability) {
	t.Helper()
	if _, err := db.AvailabilityCollection.DeleteMany(ctx, bson.M{"mentorId": avail.MentorID}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.AvailabilityCollection.InsertOne(ctx, avail); err != nil {
		t.Fatal(err)
	}
}

func seedAppointment(t *testing.T, ctx context.Context, appt models.Appointment) {
	t.Helper()
	if _, err := db.AppointmentsCollection.InsertOne(ctx, appt); err != nil {
		t.Fatal(err)
	}
}

func clearAppointments(t *testing.T, ctx context.Context, mentorID string) {
	t.Helper()
	if _, err := db.AppointmentsCollection.DeleteMany(ctx, bson.M{"mentorId": mentorID}); err != nil {
		t.Fatal(err)
	}
}

func loadBucket(t *testing.T, ctx context.Context, mentorID string, day int) []models.Slot {
	t.Helper()
	var avail models.Availability
	if err := db.AvailabilityCollection.FindOne(ctx, bson.M{"mentorId": mentorID}).Decode(&avail); err != nil {
		t.Fatal(err)
	}
	for _, d := range avail.WeeklySlots {
		if d.Day == day {
			return d.Slots
		}
	}
	return nil
}

// nextMonday returns a Monday at least a week out, at the given UTC hour.
func nextMonday(hour int) time.Time {
	d := time.Now().UTC().AddDate(0, 0, 7)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, time.UTC)
}

func TestSlotConsumedAndRestoredExactlyOnce(t *testing.T) {
	_, ctx := testDatabase(t)
	mentorID := "m-inventory"
	sig := models.Slot{StartMin: 600, EndMin: 660}
	seedAvailability(t, ctx, mondayAvailability(mentorID, []models.Slot{
		{StartMin: 540, EndMin: 600}, sig, {StartMin: 660, EndMin: 720},
	}))

	consumed, err := consumeSlot(ctx, mentorID, 1, sig)
	if err != nil {
		t.Fatal(err)
	}
	if !consumed {
		t.Fatal("first consume must succeed")
	}

	consumed, err = consumeSlot(ctx, mentorID, 1, sig)
	if err != nil {
		t.Fatal(err)
	}
	if consumed {
		t.Fatal("a consumed signature must not be consumable again")
	}

	if err := restoreSlot(ctx, mentorID, 1, sig); err != nil {
		t.Fatal(err)
	}
	if err := restoreSlot(ctx, mentorID, 1, sig); err != nil {
		t.Fatal(err)
	}

	bucket := loadBucket(t, ctx, mentorID, 1)
	n := 0
	for _, s := range bucket {
		if s == sig {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("restored signature must appear exactly once, found %d", n)
	}
	if len(bucket) != 3 {
		t.Fatalf("bucket should hold 3 slots again, got %d", len(bucket))
	}
}

func TestCreateReportsTakenSlotBeforeOverlap(t *testing.T) {
	_, ctx := testDatabase(t)
	mentorID := "m-taken"
	start := nextMonday(10)

	// The 10-11 signature is already consumed by an overlapping booking.
	seedAvailability(t, ctx, mondayAvailability(mentorID, []models.Slot{{StartMin: 540, EndMin: 600}}))
	clearAppointments(t, ctx, mentorID)
	seedAppointment(t, ctx, models.Appointment{
		ID: "apt-taken-1", UserID: "u1", MentorID: mentorID,
		MeetingDate: start, EndTime: start.Add(time.Hour),
		Status: models.StatusScheduled,
	})

	_, err := Create(ctx, CreateInput{UserID: "u2", MentorID: mentorID, MeetingDate: start})
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}
}

func TestCreateRejectsOverlapAndRestoresSlot(t *testing.T) {
	_, ctx := testDatabase(t)
	mentorID := "m-overlap"
	start := nextMonday(10)
	sig := models.Slot{StartMin: 600, EndMin: 660}

	seedAvailability(t, ctx, mondayAvailability(mentorID, []models.Slot{sig}))
	clearAppointments(t, ctx, mentorID)
	seedAppointment(t, ctx, models.Appointment{
		ID: "apt-overlap-1", UserID: "u1", MentorID: mentorID,
		MeetingDate: start.Add(-30 * time.Minute), EndTime: start.Add(30 * time.Minute),
		Status: models.StatusScheduled,
	})

	_, err := Create(ctx, CreateInput{UserID: "u2", MentorID: mentorID, MeetingDate: start})
	if !errors.Is(err, ErrOverlap) {
		t.Fatalf("expected ErrOverlap, got %v", err)
	}
	if bucket := loadBucket(t, ctx, mentorID, 1); len(bucket) != 1 || bucket[0] != sig {
		t.Fatalf("rejected booking must put the slot back, bucket=%v", bucket)
	}
}

func TestCreateEnforcesDailyCap(t *testing.T) {
	_, ctx := testDatabase(t)
	mentorID := "m-cap"
	start := nextMonday(10)
	sig := models.Slot{StartMin: 600, EndMin: 660}

	avail := mondayAvailability(mentorID, []models.Slot{sig})
	avail.MaxBookingsPerDay = 1
	seedAvailability(t, ctx, avail)
	clearAppointments(t, ctx, mentorID)

	// One non-overlapping booking already holds the day's single allowance.
	earlier := nextMonday(9)
	seedAppointment(t, ctx, models.Appointment{
		ID: "apt-cap-1", UserID: "u1", MentorID: mentorID,
		MeetingDate: earlier, EndTime: earlier.Add(time.Hour),
		Status: models.StatusScheduled,
	})

	_, err := Create(ctx, CreateInput{UserID: "u2", MentorID: mentorID, MeetingDate: start})
	if !errors.Is(err, ErrDailyCap) {
		t.Fatalf("expected ErrDailyCap, got %v", err)
	}
	if bucket := loadBucket(t, ctx, mentorID, 1); len(bucket) != 1 || bucket[0] != sig {
		t.Fatalf("capped booking must put the slot back, bucket=%v", bucket)
	}
}

type fakeMeetings struct {
	created []string
	deleted []string
}

func (f *fakeMeetings) IsConfigured() bool { return true }

func (f *fakeMeetings) CreateMeeting(ctx context.Context, topic string, start time.Time, durationMin int, timezone, agenda string) (*models.MeetingInfo, error) {
	f.created = append(f.created, topic)
	return &models.MeetingInfo{MeetingID: "mtg-123", JoinURL: "https://example.com/j/123"}, nil
}

func (f *fakeMeetings) DeleteMeeting(ctx context.Context, meetingID string) error {
	f.deleted = append(f.deleted, meetingID)
	return nil
}

func TestCreateTearsDownMeetingWhenInsertFails(t *testing.T) {
	mdb, ctx := testDatabase(t)
	mentorID := "m-cleanup"
	start := nextMonday(10)
	sig := models.Slot{StartMin: 600, EndMin: 660}
	seedAvailability(t, ctx, mondayAvailability(mentorID, []models.Slot{sig}))

	// Point the engine at a collection whose validator rejects every insert.
	rejecting := "appointments_rejecting"
	_ = mdb.Collection(rejecting).Drop(ctx)
	if err := mdb.CreateCollection(ctx, rejecting, options.CreateCollection().SetValidator(bson.M{
		"$jsonSchema": bson.M{"bsonType": "object", "required": []string{"neverPresent"}},
	})); err != nil {
		t.Fatal(err)
	}
	prevColl := db.AppointmentsCollection
	db.AppointmentsCollection = mdb.Collection(rejecting)
	t.Cleanup(func() { db.AppointmentsCollection = prevColl })

	fake := &fakeMeetings{}
	prevProvider := meetings
	meetings = fake
	t.Cleanup(func() { meetings = prevProvider })

	_, err := Create(ctx, CreateInput{UserID: "u1", MentorID: mentorID, MeetingDate: start})
	if err == nil {
		t.Fatal("insert into the rejecting collection must fail the booking")
	}
	if len(fake.deleted) != 1 || fake.deleted[0] != "mtg-123" {
		t.Fatalf("provisioned meeting must be torn down, deleted=%v", fake.deleted)
	}
	if bucket := loadBucket(t, ctx, mentorID, 1); len(bucket) != 1 || bucket[0] != sig {
		t.Fatalf("slot must be restored after the failed insert, bucket=%v", bucket)
	}
}
