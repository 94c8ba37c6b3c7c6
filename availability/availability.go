package availability

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mentra/db"
	"mentra/models"
	"mentra/slotgen"
	"mentra/utils"
)

var ErrNotFound = errors.New("availability not found")

const defaultMeetingDuration = 60

// Load fetches a mentor's availability record.
func Load(ctx context.Context, mentorID string) (*models.Availability, error) {
	var avail models.Availability
	err := db.AvailabilityCollection.FindOne(ctx, bson.M{"mentorId": mentorID}).Decode(&avail)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	// Restored signatures land at the bucket tail; re-establish clock order.
	for i := range avail.WeeklySlots {
		slotgen.SortSlots(avail.WeeklySlots[i].Slots)
	}
	return &avail, nil
}

// Upsert replaces the mentor's weekly template wholesale, regenerates the
// slot inventory from the raw ranges, and reconciles it against slots still
// held by future scheduled appointments so a booked slot is never re-offered.
func Upsert(ctx context.Context, avail *models.Availability) error {
	if avail.MeetingDuration <= 0 {
		avail.MeetingDuration = defaultMeetingDuration
	}
	if avail.Timezone == "" {
		avail.Timezone = slotgen.DefaultTimezone
	}

	for i := range avail.WeeklySlots {
		avail.WeeklySlots[i].Slots = slotgen.ExpandRawSlots(avail.WeeklySlots[i].RawSlots, avail.MeetingDuration)
	}

	if err := reconcileBooked(ctx, avail); err != nil {
		return err
	}

	avail.UpdatedAt = time.Now()
	_, err := db.AvailabilityCollection.ReplaceOne(ctx,
		bson.M{"mentorId": avail.MentorID},
		avail,
		options.Replace().SetUpsert(true),
	)
	return err
}

// reconcileBooked subtracts from each weekday bucket the signatures consumed
// by scheduled appointments that have not happened yet.
func reconcileBooked(ctx context.Context, avail *models.Availability) error {
	appts, err := utils.FindAndDecode[models.Appointment](ctx, db.AppointmentsCollection, bson.M{
		"mentorId":    avail.MentorID,
		"status":      models.StatusScheduled,
		"meetingDate": bson.M{"$gte": time.Now()},
	})
	if err != nil {
		return err
	}

	loc := slotgen.Location(avail.Timezone)
	for _, appt := range appts {
		duration := int(appt.EndTime.Sub(appt.MeetingDate).Minutes())
		day, sig := slotgen.SlotKeyFor(appt.MeetingDate, loc, duration)
		for i := range avail.WeeklySlots {
			if avail.WeeklySlots[i].Day == day {
				avail.WeeklySlots[i].Slots = removeSignature(avail.WeeklySlots[i].Slots, sig)
			}
		}
	}
	return nil
}

// removeSignature drops at most one occurrence of sig from the bucket.
func removeSignature(bucket []models.Slot, sig models.Slot) []models.Slot {
	for i, s := range bucket {
		if s.StartMin == sig.StartMin && s.EndMin == sig.EndMin {
			return append(bucket[:i:i], bucket[i+1:]...)
		}
	}
	return bucket
}
