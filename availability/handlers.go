package availability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"mentra/models"
	"mentra/slotgen"
	"mentra/utils"
)

type dayUpsert struct {
	Day   int                  `json:"day"`
	Date  string               `json:"date,omitempty"`
	Slots []slotgen.ClockRange `json:"slots"`
}

type upsertRequest struct {
	MentorID          string      `json:"mentorId"`
	WeeklySlots       []dayUpsert `json:"weeklySlots"`
	MeetingDuration   int         `json:"meetingDuration"`
	MinNoticeHours    int         `json:"minSchedulingNoticeHours"`
	MaxBookingsPerDay int         `json:"maxBookingsPerDay"`
	PreferredPlatform string      `json:"preferredPlatform"`
	Timezone          string      `json:"timezone"`
}

type dayResponse struct {
	Day      int                  `json:"day"`
	Date     string               `json:"date,omitempty"`
	RawSlots []slotgen.ClockRange `json:"rawSlots"`
	Slots    []slotgen.ClockRange `json:"slots"`
}

// PUT /api/availability
func UpsertAvailability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	mentorID := req.MentorID
	if mentorID == "" {
		mentorID = utils.GetUserIDFromRequest(r)
	}
	if mentorID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing mentorId")
		return
	}

	avail := &models.Availability{
		MentorID:          mentorID,
		WeeklySlots:       make([]models.DaySlots, 7),
		MeetingDuration:   req.MeetingDuration,
		MinNoticeHours:    req.MinNoticeHours,
		MaxBookingsPerDay: req.MaxBookingsPerDay,
		PreferredPlatform: req.PreferredPlatform,
		Timezone:          req.Timezone,
	}
	for i := range avail.WeeklySlots {
		avail.WeeklySlots[i] = models.DaySlots{Day: i, RawSlots: []models.TimeRange{}, Slots: []models.Slot{}}
	}

	for _, day := range req.WeeklySlots {
		if day.Day < 0 || day.Day > 6 {
			utils.RespondWithError(w, http.StatusBadRequest, "Day must be between 0 and 6")
			return
		}
		bucket := &avail.WeeklySlots[day.Day]
		bucket.Date = day.Date
		for _, cr := range day.Slots {
			start, end, err := cr.Minutes()
			if err != nil {
				utils.RespondWithError(w, http.StatusBadRequest, "Invalid time range: "+err.Error())
				return
			}
			if end <= start {
				utils.RespondWithError(w, http.StatusBadRequest, "Time range must end after it starts")
				return
			}
			bucket.RawSlots = append(bucket.RawSlots, models.TimeRange{StartMin: start, EndMin: end})
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := Upsert(ctx, avail); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to save availability")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"availability": toResponse(avail)})
}

// GET /api/availability/:mentorid
func GetAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	mentorID := ps.ByName("mentorid")
	if mentorID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing mentorid")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	avail, err := Load(ctx, mentorID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Availability not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Error fetching availability")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"availability": toResponse(avail)})
}

// GET /api/availability/:mentorid/monthly?year=2025&month=6
func GetMonthlyAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	mentorID := ps.ByName("mentorid")
	if mentorID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing mentorid")
		return
	}

	now := time.Now()
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	monthNum, _ := strconv.Atoi(r.URL.Query().Get("month"))
	if year == 0 {
		year = now.Year()
	}
	if monthNum == 0 {
		monthNum = int(now.Month())
	}
	if monthNum < 1 || monthNum > 12 {
		utils.RespondWithError(w, http.StatusBadRequest, "Month must be between 1 and 12")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	avail, err := Load(ctx, mentorID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Availability not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Error fetching availability")
		return
	}

	days, err := ProjectMonth(ctx, avail, year, time.Month(monthNum), now)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error projecting availability")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"mentorId": mentorID,
		"year":     year,
		"month":    monthNum,
		"days":     days,
	})
}

type availabilityResponse struct {
	MentorID          string        `json:"mentorId"`
	WeeklySlots       []dayResponse `json:"weeklySlots"`
	MeetingDuration   int           `json:"meetingDuration"`
	MinNoticeHours    int           `json:"minSchedulingNoticeHours"`
	MaxBookingsPerDay int           `json:"maxBookingsPerDay"`
	PreferredPlatform string        `json:"preferredPlatform,omitempty"`
	Timezone          string        `json:"timezone"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

func toResponse(avail *models.Availability) availabilityResponse {
	resp := availabilityResponse{
		MentorID:          avail.MentorID,
		WeeklySlots:       make([]dayResponse, 0, len(avail.WeeklySlots)),
		MeetingDuration:   avail.MeetingDuration,
		MinNoticeHours:    avail.MinNoticeHours,
		MaxBookingsPerDay: avail.MaxBookingsPerDay,
		PreferredPlatform: avail.PreferredPlatform,
		Timezone:          avail.Timezone,
		UpdatedAt:         avail.UpdatedAt,
	}
	for _, d := range avail.WeeklySlots {
		day := dayResponse{Day: d.Day, Date: d.Date, RawSlots: []slotgen.ClockRange{}, Slots: []slotgen.ClockRange{}}
		for _, raw := range d.RawSlots {
			day.RawSlots = append(day.RawSlots, slotgen.RangeFromMinutes(raw.StartMin, raw.EndMin))
		}
		for _, s := range d.Slots {
			day.Slots = append(day.Slots, slotgen.RangeFromMinutes(s.StartMin, s.EndMin))
		}
		resp.WeeklySlots = append(resp.WeeklySlots, day)
	}
	return resp
}
