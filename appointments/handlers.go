package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mentra/availability"
	"mentra/db"
	"mentra/models"
	"mentra/users"
	"mentra/utils"
)

type appointmentResponse struct {
	models.Appointment
	User   models.UserBrief `json:"user"`
	Mentor models.UserBrief `json:"mentor"`
}

func toResponse(ctx context.Context, appt *models.Appointment) appointmentResponse {
	return appointmentResponse{
		Appointment: *appt,
		User:        users.GetBrief(ctx, appt.UserID),
		Mentor:      users.GetBrief(ctx, appt.MentorID),
	}
}

func respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, availability.ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Mentor availability not found")
	case errors.Is(err, ErrAppointmentNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Appointment not found")
	case errors.Is(err, ErrDayUnavailable),
		errors.Is(err, ErrSlotUnavailable),
		errors.Is(err, ErrOverlap),
		errors.Is(err, ErrNotice),
		errors.Is(err, ErrDailyCap),
		errors.Is(err, ErrNotScheduled):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Something went wrong")
	}
}

// POST /api/appointments
func CreateAppointment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		UserID      string `json:"userId"`
		MentorID    string `json:"mentorId"`
		MeetingDate string `json:"meetingDate"`
		Platform    string `json:"platform"`
		MeetingLink string `json:"meetingLink,omitempty"`
		Notes       string `json:"notes,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	userID := body.UserID
	if userID == "" {
		userID = utils.GetUserIDFromRequest(r)
	}
	if userID == "" || body.MentorID == "" || body.MeetingDate == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	meetingDate, err := time.Parse(time.RFC3339, body.MeetingDate)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid meetingDate, expected ISO 8601")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	appt, err := Create(ctx, CreateInput{
		UserID:      userID,
		MentorID:    body.MentorID,
		MeetingDate: meetingDate,
		Platform:    body.Platform,
		MeetingLink: body.MeetingLink,
		Notes:       body.Notes,
	})
	if err != nil {
		respondEngineError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"appointment": toResponse(ctx, appt)})
}

// GET /api/appointments/:id
func GetAppointment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	appt, err := loadAppointment(ctx, ps.ByName("id"))
	if err != nil {
		respondEngineError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"appointment": toResponse(ctx, appt)})
}

// POST /api/appointments/:id/reschedule
func RescheduleAppointment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body struct {
		NewDate string `json:"newDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.NewDate == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing newDate")
		return
	}

	newDate, err := time.Parse(time.RFC3339, body.NewDate)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid newDate, expected ISO 8601")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	appt, err := Reschedule(ctx, ps.ByName("id"), newDate)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"appointment": toResponse(ctx, appt)})
}

// POST /api/appointments/:id/cancel
func CancelAppointment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body struct {
		Reason string `json:"reason,omitempty"`
	}
	// An empty body is fine; the reason is optional.
	_ = json.NewDecoder(r.Body).Decode(&body)

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	appt, err := Cancel(ctx, ps.ByName("id"), body.Reason)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"appointment": toResponse(ctx, appt)})
}

// PATCH /api/appointments/:id
func UpdateAppointment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body struct {
		Platform    *string `json:"platform,omitempty"`
		MeetingLink *string `json:"meetingLink,omitempty"`
		Notes       *string `json:"notes,omitempty"`
		Status      *string `json:"status,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	set := bson.M{"updatedAt": time.Now()}
	if body.Platform != nil {
		set["platform"] = *body.Platform
	}
	if body.MeetingLink != nil {
		set["meetingLink"] = *body.MeetingLink
	}
	if body.Notes != nil {
		set["notes"] = *body.Notes
	}
	if body.Status != nil {
		if *body.Status != models.StatusCompleted && *body.Status != models.StatusPostponed {
			utils.RespondWithError(w, http.StatusBadRequest, "Status can only be set to completed or postponed; use the cancel endpoint to cancel")
			return
		}
		set["status"] = *body.Status
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res := db.AppointmentsCollection.FindOneAndUpdate(ctx,
		bson.M{"appointmentId": ps.ByName("id")},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var updated models.Appointment
	if err := res.Decode(&updated); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Appointment not found")
		return
	}

	broadcastUpdate(updated.MentorID)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"appointment": toResponse(ctx, &updated)})
}

// GET /api/appointments/user/:userid
func GetUserAppointments(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	listAppointments(w, r, bson.M{"userId": ps.ByName("userid")})
}

// GET /api/appointments/mentor/:mentorid
func GetMentorAppointments(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	listAppointments(w, r, bson.M{"mentorId": ps.ByName("mentorid")})
}

func listAppointments(w http.ResponseWriter, r *http.Request, filter bson.M) {
	if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = status
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	cursor, err := db.AppointmentsCollection.Find(ctx, filter,
		options.Find().SetSort(bson.M{"meetingDate": 1}))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error fetching appointments")
		return
	}
	defer cursor.Close(ctx)

	appointments := []appointmentResponse{}
	for cursor.Next(ctx) {
		var appt models.Appointment
		if err := cursor.Decode(&appt); err == nil {
			appointments = append(appointments, toResponse(ctx, &appt))
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"appointments": appointments})
}
