package meet

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"

	"mentra/db"
	"mentra/utils"
)

// Standalone meeting management. Unlike the booking flow, adapter failures
// here surface to the caller as hard errors.

func CreateMeetingHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		Topic     string `json:"topic"`
		StartTime string `json:"startTime"`
		Duration  int    `json:"duration"`
		Timezone  string `json:"timezone"`
		Agenda    string `json:"agenda,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if body.Topic == "" || body.StartTime == "" || body.Duration <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	start, err := time.Parse(time.RFC3339, body.StartTime)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid startTime")
		return
	}

	if !Default().IsConfigured() {
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Meeting provider not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	info, err := Default().CreateMeeting(ctx, body.Topic, start, body.Duration, body.Timezone, body.Agenda)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadGateway, "Meeting provider error: "+err.Error())
		return
	}

	if _, err := db.MeetingsCollection.InsertOne(ctx, info); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to store meeting")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"meeting": info})
}

func GetMeetingHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	meetingID := ps.ByName("id")
	if meetingID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing id")
		return
	}

	if !Default().IsConfigured() {
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Meeting provider not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	info, err := Default().GetMeeting(ctx, meetingID)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadGateway, "Meeting provider error: "+err.Error())
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"meeting": info})
}

func DeleteMeetingHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	meetingID := ps.ByName("id")
	if meetingID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing id")
		return
	}

	if !Default().IsConfigured() {
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Meeting provider not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	if err := Default().DeleteMeeting(ctx, meetingID); err != nil {
		utils.RespondWithError(w, http.StatusBadGateway, "Meeting provider error: "+err.Error())
		return
	}

	_, _ = db.MeetingsCollection.DeleteOne(ctx, bson.M{"meetingId": meetingID})
	w.WriteHeader(http.StatusNoContent)
}
