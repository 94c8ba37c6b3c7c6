package models

import "time"

// Slot identity is a pair of minutes-since-midnight values in the mentor's
// timezone. The 12-hour clock form exists only at the JSON boundary.
type Slot struct {
	StartMin int `json:"startMin" bson:"startMin"`
	EndMin   int `json:"endMin" bson:"endMin"`
}

// TimeRange is a mentor-authored raw range; same encoding as Slot but kept
// separate because raw ranges are the durable template, not live inventory.
type TimeRange struct {
	StartMin int `json:"startMin" bson:"startMin"`
	EndMin   int `json:"endMin" bson:"endMin"`
}

type DaySlots struct {
	Day      int         `json:"day" bson:"day"`
	Date     string      `json:"date,omitempty" bson:"date,omitempty"`
	RawSlots []TimeRange `json:"rawSlots" bson:"rawSlots"`
	Slots    []Slot      `json:"slots" bson:"slots"`
}

type Availability struct {
	MentorID          string     `json:"mentorId" bson:"mentorId"`
	WeeklySlots       []DaySlots `json:"weeklySlots" bson:"weeklySlots"`
	MeetingDuration   int        `json:"meetingDuration" bson:"meetingDuration"`
	MinNoticeHours    int        `json:"minSchedulingNoticeHours" bson:"minSchedulingNoticeHours"`
	MaxBookingsPerDay int        `json:"maxBookingsPerDay" bson:"maxBookingsPerDay"`
	PreferredPlatform string     `json:"preferredPlatform,omitempty" bson:"preferredPlatform,omitempty"`
	Timezone          string     `json:"timezone" bson:"timezone"`
	UpdatedAt         time.Time  `json:"updatedAt" bson:"updatedAt"`
}

const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusPostponed = "postponed"
	StatusCanceled  = "canceled"
)

type RescheduleEntry struct {
	From time.Time `json:"from" bson:"from"`
	To   time.Time `json:"to" bson:"to"`
	At   time.Time `json:"at" bson:"at"`
}

type Appointment struct {
	ID                string            `json:"id" bson:"appointmentId"`
	UserID            string            `json:"userId" bson:"userId"`
	MentorID          string            `json:"mentorId" bson:"mentorId"`
	MeetingDate       time.Time         `json:"meetingDate" bson:"meetingDate"`
	EndTime           time.Time         `json:"endTime" bson:"endTime"`
	Platform          string            `json:"platform" bson:"platform"`
	MeetingLink       string            `json:"meetingLink,omitempty" bson:"meetingLink,omitempty"`
	Notes             string            `json:"notes,omitempty" bson:"notes,omitempty"`
	Status            string            `json:"status" bson:"status"`
	ExternalMeetingID string            `json:"externalMeetingId,omitempty" bson:"externalMeetingId,omitempty"`
	ExternalMeeting   *MeetingInfo      `json:"externalMeetingMetadata,omitempty" bson:"externalMeetingMetadata,omitempty"`
	CancelReason      string            `json:"cancelReason,omitempty" bson:"cancelReason,omitempty"`
	CanceledAt        *time.Time        `json:"canceledAt,omitempty" bson:"canceledAt,omitempty"`
	RescheduleCount   int               `json:"rescheduleCount,omitempty" bson:"rescheduleCount,omitempty"`
	RescheduleHistory []RescheduleEntry `json:"rescheduleHistory,omitempty" bson:"rescheduleHistory,omitempty"`
	CreatedAt         time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt" bson:"updatedAt"`
}

// MeetingInfo mirrors what the external meeting provider returns for a room.
type MeetingInfo struct {
	MeetingID string    `json:"meetingId" bson:"meetingId"`
	JoinURL   string    `json:"joinUrl" bson:"joinUrl"`
	StartURL  string    `json:"startUrl,omitempty" bson:"startUrl,omitempty"`
	Password  string    `json:"password,omitempty" bson:"password,omitempty"`
	HostEmail string    `json:"hostEmail,omitempty" bson:"hostEmail,omitempty"`
	HostID    string    `json:"hostId,omitempty" bson:"hostId,omitempty"`
	Topic     string    `json:"topic" bson:"topic"`
	Duration  int       `json:"duration" bson:"duration"`
	Timezone  string    `json:"timezone,omitempty" bson:"timezone,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

type Notification struct {
	ID        string    `json:"id" bson:"notificationId"`
	UserID    string    `json:"userId,omitempty" bson:"userId,omitempty"`
	Role      string    `json:"role,omitempty" bson:"role,omitempty"`
	Name      string    `json:"name" bson:"name"`
	Details   string    `json:"details" bson:"details"`
	Module    string    `json:"module" bson:"module"`
	Read      bool      `json:"read" bson:"read"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
