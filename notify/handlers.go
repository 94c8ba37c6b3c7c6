package notify

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mentra/db"
	"mentra/models"
	"mentra/utils"
)

// GET /api/notifications
func GetNotifications(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cursor, err := db.NotificationsCollection.Find(ctx, bson.M{"userId": userID},
		options.Find().SetSort(bson.M{"createdAt": -1}).SetLimit(100))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error fetching notifications")
		return
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	for cursor.Next(ctx) {
		var n models.Notification
		if err := cursor.Decode(&n); err == nil {
			notifications = append(notifications, n)
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"notifications": notifications})
}

// POST /api/notifications/:id/read
func MarkNotificationRead(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	notificationID := ps.ByName("id")
	if notificationID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := db.NotificationsCollection.UpdateOne(ctx,
		bson.M{"notificationId": notificationID, "userId": userID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error updating notification")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Notification not found")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true})
}
