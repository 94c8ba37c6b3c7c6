package appointments

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"mentra/availability"
	"mentra/db"
	"mentra/meet"
	"mentra/models"
	"mentra/notify"
	"mentra/slotgen"
	"mentra/users"
	"mentra/utils"
)

// Business-invariant violations surfaced to handlers. The handler layer maps
// ErrAppointmentNotFound / availability.ErrNotFound to 404 and the rest to 400.
var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrDayUnavailable      = errors.New("mentor is not available on this day")
	ErrSlotUnavailable     = errors.New("slot is not available")
	ErrOverlap             = errors.New("mentor already has a booking overlapping this time")
	ErrNotice              = errors.New("booking violates the minimum scheduling notice")
	ErrDailyCap            = errors.New("mentor has reached the maximum bookings for this day")
	ErrNotScheduled        = errors.New("appointment is not in a scheduled state")
)

// meetingProvider is what the engine needs from the external meeting
// adapter; tests substitute a recording fake.
type meetingProvider interface {
	IsConfigured() bool
	CreateMeeting(ctx context.Context, topic string, start time.Time, durationMin int, timezone, agenda string) (*models.MeetingInfo, error)
	DeleteMeeting(ctx context.Context, meetingID string) error
}

var meetings meetingProvider = meet.Default()

type CreateInput struct {
	UserID      string
	MentorID    string
	MeetingDate time.Time
	Platform    string
	MeetingLink string
	Notes       string
}

// Create validates and executes a booking: invariant checks, atomic slot
// consumption, best-effort meeting provisioning, persistence, best-effort
// notification fan-out.
func Create(ctx context.Context, in CreateInput) (*models.Appointment, error) {
	avail, err := availability.Load(ctx, in.MentorID)
	if err != nil {
		return nil, err
	}

	loc := slotgen.Location(avail.Timezone)
	day, sig := slotgen.SlotKeyFor(in.MeetingDate, loc, avail.MeetingDuration)

	bucket := bucketFor(avail, day)
	if bucket == nil || len(bucket.RawSlots) == 0 {
		return nil, ErrDayUnavailable
	}

	endTime := in.MeetingDate.Add(time.Duration(avail.MeetingDuration) * time.Minute)

	// Consumption doubles as the presence check: the conditional pull only
	// succeeds while the signature is still in the weekday's inventory, so
	// two concurrent requests for the same slot cannot both get through.
	// It runs before the other invariants so a taken slot always reports
	// as unavailable, whatever else the request violates.
	consumed, err := consumeSlot(ctx, in.MentorID, day, sig)
	if err != nil {
		return nil, err
	}
	if !consumed {
		return nil, ErrSlotUnavailable
	}

	if err := checkInvariants(ctx, avail, in.MeetingDate, endTime, loc, ""); err != nil {
		if restoreErr := restoreSlot(ctx, in.MentorID, day, sig); restoreErr != nil {
			log.Printf("[appointments] slot restore after rejected booking: %v", restoreErr)
		}
		return nil, err
	}

	platform := in.Platform
	if platform == "" {
		platform = avail.PreferredPlatform
	}

	appt := &models.Appointment{
		ID:          "apt" + utils.GenerateRandomDigitString(16),
		UserID:      in.UserID,
		MentorID:    in.MentorID,
		MeetingDate: in.MeetingDate,
		EndTime:     endTime,
		Platform:    platform,
		MeetingLink: in.MeetingLink,
		Notes:       in.Notes,
		Status:      models.StatusScheduled,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	provisionMeeting(ctx, appt, avail)

	if _, err := db.AppointmentsCollection.InsertOne(ctx, appt); err != nil {
		// Persisting failed after inventory was consumed; put the slot
		// back and tear down the room that was provisioned for it.
		if restoreErr := restoreSlot(ctx, in.MentorID, day, sig); restoreErr != nil {
			log.Printf("[appointments] slot restore after failed insert: %v", restoreErr)
		}
		if appt.ExternalMeetingID != "" {
			if delErr := meetings.DeleteMeeting(ctx, appt.ExternalMeetingID); delErr != nil {
				log.Printf("[appointments] meeting cleanup after failed insert: %v", delErr)
			}
		}
		return nil, err
	}

	notifyBookingEvent(ctx, appt, "Appointment booked",
		fmt.Sprintf("Session on %s (%s)", appt.MeetingDate.In(loc).Format("Mon, 02 Jan 2006 3:04 PM"), appt.Platform))
	broadcastUpdate(appt.MentorID)

	return appt, nil
}

// Reschedule moves a scheduled appointment to a new instant: the old slot
// signature is restored and the new one consumed, exactly once each.
func Reschedule(ctx context.Context, appointmentID string, newDate time.Time) (*models.Appointment, error) {
	appt, err := loadAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.Status != models.StatusScheduled {
		return nil, ErrNotScheduled
	}

	avail, err := availability.Load(ctx, appt.MentorID)
	if err != nil {
		return nil, err
	}

	loc := slotgen.Location(avail.Timezone)

	// The old signature is derived from the duration in force when the slot
	// was consumed, not the current policy.
	oldDuration := int(appt.EndTime.Sub(appt.MeetingDate).Minutes())
	oldDay, oldSig := slotgen.SlotKeyFor(appt.MeetingDate, loc, oldDuration)

	newDay, newSig := slotgen.SlotKeyFor(newDate, loc, avail.MeetingDuration)
	newEnd := newDate.Add(time.Duration(avail.MeetingDuration) * time.Minute)

	bucket := bucketFor(avail, newDay)
	if bucket == nil || len(bucket.RawSlots) == 0 {
		return nil, ErrDayUnavailable
	}

	consumed, err := consumeSlot(ctx, appt.MentorID, newDay, newSig)
	if err != nil {
		return nil, err
	}
	if !consumed {
		return nil, ErrSlotUnavailable
	}

	if err := checkInvariants(ctx, avail, newDate, newEnd, loc, appt.ID); err != nil {
		if restoreErr := restoreSlot(ctx, appt.MentorID, newDay, newSig); restoreErr != nil {
			log.Printf("[appointments] new slot restore after rejected reschedule: %v", restoreErr)
		}
		return nil, err
	}

	if err := restoreSlot(ctx, appt.MentorID, oldDay, oldSig); err != nil {
		log.Printf("[appointments] old slot restore failed for %s: %v", appt.ID, err)
	}

	oldDate := appt.MeetingDate
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"meetingDate": newDate,
			"endTime":     newEnd,
			"updatedAt":   now,
		},
		"$inc":  bson.M{"rescheduleCount": 1},
		"$push": bson.M{"rescheduleHistory": models.RescheduleEntry{From: oldDate, To: newDate, At: now}},
	}
	if _, err := db.AppointmentsCollection.UpdateOne(ctx, bson.M{"appointmentId": appt.ID}, update); err != nil {
		// Undo the inventory swap so the record and inventory stay aligned.
		if restoreErr := restoreSlot(ctx, appt.MentorID, newDay, newSig); restoreErr != nil {
			log.Printf("[appointments] new slot restore after failed update: %v", restoreErr)
		}
		if _, pullErr := pullSlot(ctx, appt.MentorID, oldDay, oldSig); pullErr != nil {
			log.Printf("[appointments] old slot re-consume after failed update: %v", pullErr)
		}
		return nil, err
	}

	appt.MeetingDate = newDate
	appt.EndTime = newEnd
	appt.UpdatedAt = now
	appt.RescheduleCount++
	appt.RescheduleHistory = append(appt.RescheduleHistory, models.RescheduleEntry{From: oldDate, To: newDate, At: now})

	notifyBookingEvent(ctx, appt, "Appointment rescheduled",
		fmt.Sprintf("Session moved from %s to %s",
			oldDate.In(loc).Format("Mon, 02 Jan 2006 3:04 PM"),
			newDate.In(loc).Format("Mon, 02 Jan 2006 3:04 PM")))
	broadcastUpdate(appt.MentorID)

	return appt, nil
}

// Cancel terminates a scheduled appointment and restores its slot. A missing
// availability record downgrades restoration to a logged skip; cancellation
// itself still goes through.
func Cancel(ctx context.Context, appointmentID, reason string) (*models.Appointment, error) {
	appt, err := loadAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.Status != models.StatusScheduled {
		return nil, ErrNotScheduled
	}

	if appt.ExternalMeetingID != "" && meetings.IsConfigured() {
		if err := meetings.DeleteMeeting(ctx, appt.ExternalMeetingID); err != nil {
			log.Printf("[appointments] external meeting delete failed for %s: %v", appt.ID, err)
		}
	}

	avail, err := availability.Load(ctx, appt.MentorID)
	switch {
	case errors.Is(err, availability.ErrNotFound):
		log.Printf("[appointments] no availability for mentor %s; skipping slot restore", appt.MentorID)
	case err != nil:
		return nil, err
	default:
		loc := slotgen.Location(avail.Timezone)
		duration := int(appt.EndTime.Sub(appt.MeetingDate).Minutes())
		day, sig := slotgen.SlotKeyFor(appt.MeetingDate, loc, duration)
		if err := restoreSlot(ctx, appt.MentorID, day, sig); err != nil {
			log.Printf("[appointments] slot restore failed for %s: %v", appt.ID, err)
		}
	}

	now := time.Now()
	update := bson.M{"$set": bson.M{
		"status":       models.StatusCanceled,
		"cancelReason": reason,
		"canceledAt":   now,
		"updatedAt":    now,
	}}
	if _, err := db.AppointmentsCollection.UpdateOne(ctx, bson.M{"appointmentId": appt.ID}, update); err != nil {
		return nil, err
	}

	appt.Status = models.StatusCanceled
	appt.CancelReason = reason
	appt.CanceledAt = &now
	appt.UpdatedAt = now

	notifyBookingEvent(ctx, appt, "Appointment canceled",
		fmt.Sprintf("Session on %s was canceled. Reason: %s", appt.MeetingDate.Format("Mon, 02 Jan 2006 3:04 PM UTC"), reason))
	broadcastUpdate(appt.MentorID)

	return appt, nil
}

// checkInvariants runs the overlap, notice and daily-cap checks for a
// candidate [start, end) window, excluding excludeID.
func checkInvariants(ctx context.Context, avail *models.Availability, start, end time.Time, loc *time.Location, excludeID string) error {
	appts, err := scheduledFor(ctx, avail.MentorID)
	if err != nil {
		return err
	}

	if hasOverlap(appts, start, end, excludeID) {
		return ErrOverlap
	}

	if start.Before(time.Now().Add(time.Duration(avail.MinNoticeHours) * time.Hour)) {
		return ErrNotice
	}

	if avail.MaxBookingsPerDay > 0 && countWithinDay(appts, start, loc, excludeID) >= avail.MaxBookingsPerDay {
		return ErrDailyCap
	}
	return nil
}

func scheduledFor(ctx context.Context, mentorID string) ([]models.Appointment, error) {
	return utils.FindAndDecode[models.Appointment](ctx, db.AppointmentsCollection, bson.M{
		"mentorId": mentorID,
		"status":   models.StatusScheduled,
	})
}

// hasOverlap reports whether any appointment's [meetingDate, endTime)
// window intersects [start, end). Back-to-back windows do not overlap.
func hasOverlap(appts []models.Appointment, start, end time.Time, excludeID string) bool {
	for _, a := range appts {
		if a.ID == excludeID {
			continue
		}
		if a.MeetingDate.Before(end) && a.EndTime.After(start) {
			return true
		}
	}
	return false
}

// countWithinDay counts appointments starting on the local calendar day
// that contains t.
func countWithinDay(appts []models.Appointment, t time.Time, loc *time.Location, excludeID string) int {
	dayStart, dayEnd := slotgen.DayWindow(t, loc)
	n := 0
	for _, a := range appts {
		if a.ID == excludeID {
			continue
		}
		if !a.MeetingDate.Before(dayStart) && a.MeetingDate.Before(dayEnd) {
			n++
		}
	}
	return n
}

func loadAppointment(ctx context.Context, appointmentID string) (*models.Appointment, error) {
	var appt models.Appointment
	err := db.AppointmentsCollection.FindOne(ctx, bson.M{"appointmentId": appointmentID}).Decode(&appt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &appt, nil
}

func bucketFor(avail *models.Availability, day int) *models.DaySlots {
	for i := range avail.WeeklySlots {
		if avail.WeeklySlots[i].Day == day {
			return &avail.WeeklySlots[i]
		}
	}
	return nil
}

// consumeSlot removes the signature from the weekday bucket with a single
// conditional update; it reports false when the signature was already gone.
func consumeSlot(ctx context.Context, mentorID string, day int, sig models.Slot) (bool, error) {
	return pullSlot(ctx, mentorID, day, sig)
}

func pullSlot(ctx context.Context, mentorID string, day int, sig models.Slot) (bool, error) {
	res, err := db.AvailabilityCollection.UpdateOne(ctx,
		bson.M{
			"mentorId": mentorID,
			"weeklySlots": bson.M{"$elemMatch": bson.M{
				"day":   day,
				"slots": bson.M{"$elemMatch": bson.M{"startMin": sig.StartMin, "endMin": sig.EndMin}},
			}},
		},
		bson.M{"$pull": bson.M{
			"weeklySlots.$.slots": bson.M{"startMin": sig.StartMin, "endMin": sig.EndMin},
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// restoreSlot puts a vacated signature back into the weekday bucket.
// $addToSet keeps restoration idempotent: a signature never appears twice.
func restoreSlot(ctx context.Context, mentorID string, day int, sig models.Slot) error {
	_, err := db.AvailabilityCollection.UpdateOne(ctx,
		bson.M{"mentorId": mentorID, "weeklySlots.day": day},
		bson.M{"$addToSet": bson.M{"weeklySlots.$.slots": sig}},
	)
	return err
}

// provisionMeeting asks the external provider for a room. Failures are
// logged and never abort the booking.
func provisionMeeting(ctx context.Context, appt *models.Appointment, avail *models.Availability) {
	if !meetings.IsConfigured() {
		return
	}

	mentor := users.GetBrief(ctx, appt.MentorID)
	student := users.GetBrief(ctx, appt.UserID)
	topic := fmt.Sprintf("Mentoring session: %s x %s", mentor.Username, student.Username)
	agenda := appt.Notes

	info, err := meetings.CreateMeeting(ctx, topic, appt.MeetingDate, avail.MeetingDuration, avail.Timezone, agenda)
	if err != nil {
		log.Printf("[appointments] meeting provisioning failed, booking continues: %v", err)
		return
	}

	appt.ExternalMeetingID = info.MeetingID
	appt.ExternalMeeting = info
	appt.MeetingLink = info.JoinURL
}

// notifyBookingEvent fans a lifecycle event out to the student, the mentor
// and every director. Errors never propagate past the sink.
func notifyBookingEvent(ctx context.Context, appt *models.Appointment, name, details string) {
	notify.Fire(ctx, models.Notification{UserID: appt.UserID, Name: name, Details: details, Module: "appointments"})
	notify.Fire(ctx, models.Notification{UserID: appt.MentorID, Name: name, Details: details, Module: "appointments"})
	notify.Fire(ctx, models.Notification{Role: notify.RoleDirector, Name: name, Details: details, Module: "appointments"})
}
